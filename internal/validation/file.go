package validation

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
)

var ErrNoConstraints = errors.New("no file constraints provided")

// FileConstraints defines validation rules for attachments.
type FileConstraints struct {
	AllowedMimeTypes  map[string]bool
	AllowedExtensions map[string]bool
	MaxSize           int
}

var (
	// ImageConstraints covers the images the chat accepts as attachments.
	ImageConstraints = FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"image/jpeg": true,
			"image/png":  true,
			"image/gif":  true,
			"image/webp": true,
		},
		AllowedExtensions: map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".gif":  true,
			".webp": true,
		},
		MaxSize: 5 << 20, // 5MB
	}
)

// ValidateFile checks an attachment against one or more constraint sets and
// returns the content type detected from its bytes. The file must match at
// least one set. An empty name skips the extension check.
func ValidateFile(name string, data []byte, constraints ...FileConstraints) (string, error) {
	if len(constraints) == 0 {
		return "", ErrNoConstraints
	}

	var lastErr error
	for _, c := range constraints {
		detected, err := validateAgainstConstraint(name, data, c)
		if err == nil {
			return detected, nil
		}
		lastErr = err
	}
	return "", lastErr
}

func validateAgainstConstraint(name string, data []byte, c FileConstraints) (string, error) {
	if len(data) == 0 {
		return "", errors.New("file is empty")
	}
	if len(data) > c.MaxSize {
		return "", fmt.Errorf("file too large: maximum size is %d MB", c.MaxSize/(1<<20))
	}

	// Magic numbers, not the declared type.
	detected := http.DetectContentType(data)
	if !c.AllowedMimeTypes[detected] {
		return "", fmt.Errorf("invalid file type (detected: %s)", detected)
	}

	if name != "" {
		ext := strings.ToLower(path.Ext(name))
		if !c.AllowedExtensions[ext] {
			return "", fmt.Errorf("invalid file extension: %q", ext)
		}
	}

	return detected, nil
}
