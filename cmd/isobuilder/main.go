package main

import (
	"fmt"
	"os"
	"time"

	"github.com/bgrewell/isoforge"
	"github.com/bgrewell/isoforge/pkg/logging"
	"github.com/theckman/yacspin"
)

func main() {

	log := logging.NewSimpleLogger(os.Stderr, logging.TRACE, true)

	spinner, err := yacspin.New(yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[9],
		Suffix:          " building image",
		SuffixAutoColon: true,
	})
	if err != nil {
		panic(fmt.Errorf("failed to create spinner: %w", err))
	}
	if err := spinner.Start(); err != nil {
		panic(fmt.Errorf("failed to start spinner: %w", err))
	}

	img, err := iso.Create("/tmp/ubuntu",
		iso.WithLogger(log),
		iso.WithVolumeID("UBUNTU"),
		iso.WithJoliet(true),
		iso.WithProgress(func(message string, bytesWritten, totalBytes int64, percent int) {
			spinner.Message(message)
		}),
	)
	if err != nil {
		_ = spinner.StopFail()
		panic(fmt.Errorf("failed to create ISO: %w", err))
	}

	err = img.Write("/tmp/validation.iso")
	if err != nil {
		_ = spinner.StopFail()
		panic(fmt.Errorf("failed to save ISO: %w", err))
	}

	spinner.StopMessage("image complete")
	_ = spinner.Stop()
}
