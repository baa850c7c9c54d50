package backend

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

// DockerBackend runs guests as containers. The kernel argument of Start is
// recorded by callers but unused here: container guests bring no kernel.
type DockerBackend struct {
	cli       *client.Client
	guestPort int

	imageMu sync.Mutex
	pulled  map[string]bool
}

func NewDockerBackend(guestPort int) (*DockerBackend, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return &DockerBackend{cli: cli, guestPort: guestPort, pulled: make(map[string]bool)}, nil
}

func (b *DockerBackend) Start(ctx context.Context, image, kernel string, vcpus, memoryMB int) (Guest, error) {
	if err := b.ensureImage(ctx, image); err != nil {
		return Guest{}, err
	}

	resources := container.Resources{Memory: int64(memoryMB) * 1048576}
	if vcpus > 0 {
		resources.CPUPeriod = 50000 // 50ms
		resources.CPUQuota = int64(50000 * vcpus)
	}

	resp, err := b.cli.ContainerCreate(ctx, &container.Config{
		Image: image,
		Tty:   false,
	}, &container.HostConfig{Resources: resources}, nil, nil, "")
	if err != nil {
		return Guest{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	if err := b.cli.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{}); err != nil {
		_ = b.cli.ContainerRemove(ctx, resp.ID, types.ContainerRemoveOptions{Force: true})
		return Guest{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	info, err := b.cli.ContainerInspect(ctx, resp.ID)
	if err != nil {
		_ = b.cli.ContainerRemove(ctx, resp.ID, types.ContainerRemoveOptions{Force: true})
		return Guest{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	return Guest{IP: info.NetworkSettings.IPAddress, Port: b.guestPort, Handle: resp.ID}, nil
}

// Stop kills and removes the guest container.
func (b *DockerBackend) Stop(ctx context.Context, g Guest) error {
	if err := b.cli.ContainerRemove(ctx, g.Handle, types.ContainerRemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (b *DockerBackend) ensureImage(ctx context.Context, image string) error {
	if b.hasImage(ctx, image) {
		return nil
	}
	log.Printf("Pulling image: %s", image)
	pullResp, err := b.cli.ImagePull(ctx, image, types.ImagePullOptions{})
	if err != nil {
		// a stale local copy may still be usable
		log.Printf("Could not pull image: %s", image)
		return nil
	}
	defer pullResp.Close()
	// draining the response waits for the pull to finish
	io.Copy(io.Discard, pullResp)

	b.imageMu.Lock()
	b.pulled[image] = true
	b.imageMu.Unlock()
	return nil
}

func (b *DockerBackend) hasImage(ctx context.Context, image string) bool {
	b.imageMu.Lock()
	defer b.imageMu.Unlock()

	// an image pulled or seen once stays local until someone prunes it
	if b.pulled[image] {
		return true
	}

	list, err := b.cli.ImageList(ctx, types.ImageListOptions{Filters: filters.Args{}})
	if err != nil {
		log.Printf("image list error: %v", err)
		return false
	}
	for _, summary := range list {
		if len(summary.RepoTags) > 0 && strings.HasPrefix(summary.RepoTags[0], image) {
			b.pulled[image] = true
			return true
		}
	}
	return false
}
