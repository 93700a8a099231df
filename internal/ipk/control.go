package ipk

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/toltec-dev/toltecmk/internal/models"
)

// ParseControl parses a control file into index metadata
func ParseControl(data []byte) (*models.Package, error) {
	pkg := &models.Package{}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	var currentKey string
	var currentValue strings.Builder

	for scanner.Scan() {
		line := scanner.Text()

		// Handle continuation lines (start with space)
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			currentValue.WriteString("\n")
			currentValue.WriteString(line)
			continue
		}

		if currentKey != "" {
			setValue(pkg, currentKey, currentValue.String())
			currentKey = ""
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed control line %q", line)
		}
		currentKey = strings.TrimSpace(key)
		currentValue.Reset()
		currentValue.WriteString(strings.TrimSpace(value))
	}

	if currentKey != "" {
		setValue(pkg, currentKey, currentValue.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if pkg.Name == "" || pkg.Version == "" || pkg.Architecture == "" {
		return nil, fmt.Errorf("control file lacks Package, Version or Architecture")
	}

	return pkg, nil
}

// setValue sets a field in the Package based on the control file key
func setValue(pkg *models.Package, key, value string) {
	switch strings.ToLower(key) {
	case "package":
		pkg.Name = value
	case "version":
		pkg.Version = value
	case "architecture":
		pkg.Architecture = value
	case "description":
		pkg.Description = value
	case "maintainer":
		pkg.Maintainer = value
	case "section":
		pkg.Section = value
	case "homepage":
		pkg.Homepage = value
	case "license":
		pkg.License = value
	case "depends":
		pkg.Dependencies = splitList(value)
	case "conflicts":
		pkg.Conflicts = splitList(value)
	default:
		pkg.Extra = append(pkg.Extra, models.Field{Key: key, Value: value})
	}
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
