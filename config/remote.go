package config

import (
	"context"
	"fmt"
	"time"

	getter "github.com/hashicorp/go-getter"
)

// DownloadRegistry pulls a registry directory from a git source (for
// example "github.com/org/repo//registry") so deployments can track a
// shared registry repo instead of shipping the file in the image.
func DownloadRegistry(src, dst string) error {
	deadline := time.Now().Add(120 * time.Second)
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	opts := getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Mode: getter.ClientModeDir,
		Detectors: []getter.Detector{
			&getter.GitHubDetector{},
		},
		Getters: map[string]getter.Getter{
			"git": &getter.GitGetter{},
		},
	}

	if err := opts.Get(); err != nil {
		return fmt.Errorf("failed to download registry: %w", err)
	}
	return nil
}
