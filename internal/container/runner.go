// Package container runs build scripts inside containers managed by
// containerd.
//
// Each call to [Runner.Run] creates a fresh container from the requested
// image, bind-mounts host directories into it, runs one script to completion
// and removes the container along with its snapshot.
package container

import (
	"context"
	"errors"
	"fmt"
	"io"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/pkg/cio"
	"github.com/containerd/containerd/v2/pkg/oci"
	"github.com/containerd/errdefs"
	"github.com/google/uuid"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/sirupsen/logrus"
	"github.com/toltec-dev/toltecmk/internal/bash"
)

// ErrRuntime is wrapped by every failure of the container runtime itself,
// as opposed to failures of the script it runs
var ErrRuntime = errors.New("container runtime error")

// Mount binds a host directory to a path inside the container
type Mount struct {
	Source string
	Target string
}

// Runner runs scripts in throwaway containers
type Runner struct {
	client      *containerd.Client
	snapshotter string
}

// New connects to the containerd socket at address. All containers and
// images live in namespace. The runner must be closed when no longer needed.
func New(address, namespace, snapshotter string) (*Runner, error) {
	client, err := containerd.New(address, containerd.WithDefaultNamespace(namespace))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}
	return &Runner{client: client, snapshotter: snapshotter}, nil
}

// Close closes the containerd client connection
func (r *Runner) Close() error {
	return r.client.Close()
}

// Run executes script with vars bound inside a new container created from
// image, forwarding each line of its combined output to out.
//
// A script exiting with a non-zero status yields a *bash.ScriptError.
func (r *Runner) Run(ctx context.Context, image string, mounts []Mount, vars *bash.Variables, script string, out bash.LineFunc) error {
	text, err := bash.WrapScript(vars, script)
	if err != nil {
		return err
	}

	img, err := r.ensureImage(ctx, image)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	id := "toltecmk-" + uuid.NewString()

	ctr, err := r.client.NewContainer(ctx, id,
		containerd.WithImage(img),
		containerd.WithSnapshotter(r.snapshotter),
		containerd.WithNewSnapshot(id, img),
		containerd.WithNewSpec(
			oci.WithImageConfig(img),
			oci.WithProcessArgs("/usr/bin/env", "bash", "-c", text),
			oci.WithMounts(MountSpecs(mounts)),
			oci.WithHostNamespace(specs.NetworkNamespace),
			oci.WithHostResolvconf,
		),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to create container: %w", ErrRuntime, err)
	}
	defer r.remove(ctr)

	logrus.Debugf("Created container %s from %s", id, image)

	return r.runTask(ctx, ctr, out)
}

// ensureImage returns the local image for ref, pulling it if needed
func (r *Runner) ensureImage(ctx context.Context, ref string) (containerd.Image, error) {
	img, err := r.client.GetImage(ctx, ref)
	if err == nil {
		unpacked, err := img.IsUnpacked(ctx, r.snapshotter)
		if err != nil {
			return nil, err
		}
		if !unpacked {
			if err := img.Unpack(ctx, r.snapshotter); err != nil {
				return nil, err
			}
		}
		return img, nil
	}

	if !errdefs.IsNotFound(err) {
		return nil, err
	}

	logrus.Infof("Pulling image %s", ref)

	return r.client.Pull(ctx, ref,
		containerd.WithPullUnpack,
		containerd.WithPullSnapshotter(r.snapshotter),
	)
}

// runTask starts the container's main process and waits for it to exit
func (r *Runner) runTask(ctx context.Context, ctr containerd.Container, out bash.LineFunc) error {
	pr, pw := io.Pipe()

	task, err := ctr.NewTask(ctx, cio.NewCreator(cio.WithStreams(nil, pw, pw)))
	if err != nil {
		pw.Close()
		return fmt.Errorf("%w: failed to create task: %w", ErrRuntime, err)
	}
	defer task.Delete(context.WithoutCancel(ctx), containerd.WithProcessKill)

	statusC, err := task.Wait(ctx)
	if err != nil {
		pw.Close()
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	forwarded := make(chan error, 1)
	go func() {
		forwarded <- bash.ForwardLines(pr, out)
	}()

	if err := task.Start(ctx); err != nil {
		pw.Close()
		<-forwarded
		return fmt.Errorf("%w: failed to start task: %w", ErrRuntime, err)
	}

	status := <-statusC

	// Drain the output copied from the container before closing the pipe
	task.IO().Wait()
	pw.Close()

	if err := <-forwarded; err != nil {
		return err
	}

	code, _, err := status.Result()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	if code != 0 {
		return &bash.ScriptError{ExitCode: int(code)}
	}

	return nil
}

// remove deletes a container and its snapshot
func (r *Runner) remove(ctr containerd.Container) {
	ctx := context.Background()
	if err := ctr.Delete(ctx, containerd.WithSnapshotCleanup); err != nil && !errdefs.IsNotFound(err) {
		logrus.Warnf("Failed to remove container %s: %v", ctr.ID(), err)
	}
}

// MountSpecs converts bind mounts to their OCI representation
func MountSpecs(mounts []Mount) []specs.Mount {
	result := make([]specs.Mount, 0, len(mounts))
	for _, m := range mounts {
		result = append(result, specs.Mount{
			Type:        "bind",
			Source:      m.Source,
			Destination: m.Target,
			Options:     []string{"rbind", "rw"},
		})
	}
	return result
}
