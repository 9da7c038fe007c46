package config

import "strings"

type UploadConfig interface {
	GetUploadFolder() string
	GetAllowedExtensions() []string
	GetMaxUploadBytes() int64
}

type Upload struct{}

var _ UploadConfig = Upload{}

func (Upload) GetUploadFolder() string {
	return GetEnv("UPLOAD_FOLDER", "./data/uploads")
}

func (Upload) GetAllowedExtensions() []string {
	exts := GetEnv("ALLOWED_EXTENSIONS", "pdf,txt,md")
	parts := strings.Split(exts, ",")
	allowed := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(p, ".")))
		if p != "" {
			allowed = append(allowed, p)
		}
	}
	return allowed
}

func (Upload) GetMaxUploadBytes() int64 {
	return 16 * 1024 * 1024 // 16MB max upload size
}
