package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ProcessConverter turns a file on disk into another format, writing the
// result into outDir, and returns the output path.
type ProcessConverter interface {
	ConvertFile(ctx context.Context, input string, outDir string, format string) (string, error)
}

// SofficeConverter shells out to LibreOffice. Each call gets its own user
// profile below outDir so concurrent conversions never share profile locks.
type SofficeConverter struct {
	Binary string
}

func NewSofficeConverter(binary string) *SofficeConverter {
	return &SofficeConverter{Binary: binary}
}

func (c *SofficeConverter) ConvertFile(ctx context.Context, input string, outDir string, format string) (string, error) {
	binary := c.Binary
	if binary == "" {
		binary = "soffice"
	}
	profile, err := filepath.Abs(filepath.Join(outDir, "profile"))
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, binary,
		"-env:UserInstallation=file://"+filepath.ToSlash(profile),
		"--headless",
		"--norestore",
		"--convert-to", format,
		"--outdir", outDir,
		input,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("soffice: %w", ctx.Err())
		}
		return "", fmt.Errorf("soffice: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	output := filepath.Join(outDir, base+"."+format)
	if _, err := os.Stat(output); err != nil {
		return "", fmt.Errorf("soffice produced no output: %w", err)
	}
	return output, nil
}
