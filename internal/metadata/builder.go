package metadata

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bradfitz/latlong"
)

const maxTitleLength = 100

// Builder generates the title, description, tags, and recording details
// attached to each upload from a base template configuration, an optional
// per-folder override, and whatever metadata can be extracted from the
// file itself.
type Builder struct {
	base   templateConfig
	logger *slog.Logger
}

// NewBuilder constructs a Builder from the configured base title/
// description templates and tag list.
func NewBuilder(titleTemplate, descriptionTemplate string, tags []string, logger *slog.Logger) *Builder {
	return &Builder{
		base: templateConfig{
			TitleTemplate:       titleTemplate,
			DescriptionTemplate: descriptionTemplate,
			Tags:                append([]string(nil), tags...),
		},
		logger: logger,
	}
}

// Generate builds the metadata Record for the file at path, which is the
// index-th of total files in its folder (1-based, used only for the
// {index}/{total} template placeholders).
func (b *Builder) Generate(path string, index, total int) Record {
	folder := filepath.Dir(path)
	folderName := filepath.Base(folder)
	fileName := filepath.Base(path)
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	info, err := extractContainerMetadata(path)
	if err != nil {
		b.logger.Warn("container metadata extraction failed", "path", path, "error", err)
	}

	if info.Location == nil {
		if loc, err := scanGPSFromBytes(path); err == nil && loc != nil {
			info.Location = loc
		} else if err != nil {
			b.logger.Warn("gps byte scan failed", "path", path, "error", err)
		}
	}

	creationTime := info.CreationTime
	if info.Location != nil && !creationTime.IsZero() {
		if zone := latlong.LookupZoneName(info.Location.Latitude, info.Location.Longitude); zone != "" {
			if loc, err := time.LoadLocation(zone); err == nil {
				creationTime = creationTime.In(loc)
			}
		}
	}

	dateStr := "Unknown"
	yearStr := ""

	if !creationTime.IsZero() {
		dateStr = creationTime.Format("2006-01-02 15:04:05")
		yearStr = strconv.Itoa(creationTime.Year())
	}

	vars := map[string]string{
		"folder":   folderName,
		"stem":     stem,
		"filename": fileName,
		"date":     dateStr,
		"year":     yearStr,
		"index":    strconv.Itoa(index),
		"total":    strconv.Itoa(total),
	}

	tmpl := resolveTemplateConfig(b.base, folder, func(msg string, err error) {
		b.logger.Warn(msg, "folder", folder, "error", err)
	})

	title, err := expandTemplate(tmpl.TitleTemplate, vars)
	if err != nil {
		b.logger.Warn("title template error, falling back to default", "path", path, "error", err)
		title = fmt.Sprintf("【%s】%s", folderName, stem)
	}

	title = truncateTitle(title)

	description, err := expandTemplate(tmpl.DescriptionTemplate, vars)
	if err != nil {
		b.logger.Warn("description template error, falling back to default", "path", path, "error", err)
		description = fmt.Sprintf("%s\nNo. %d/%d\n\nFile: %s\nCaptured: %s\n",
			folderName, index, total, fileName, dateStr)
	}

	tags := dedupTags(tmpl.Tags, folderName, yearStr)

	rec := Record{
		Title:       title,
		Description: description,
		Tags:        tags,
	}

	if !creationTime.IsZero() {
		rec.RecordingDetails.RecordingDate = creationTime.UTC().Format("2006-01-02T15:04:05") + "Z"
	}

	if info.Location != nil {
		rec.RecordingDetails.Location = info.Location
	}

	return rec
}

func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleLength {
		return title
	}

	return string(runes[:maxTitleLength-3]) + "..."
}

func dedupTags(base []string, folderName, yearStr string) []string {
	tags := append([]string(nil), base...)

	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		seen[t] = true
	}

	if folderName != "" && !seen[folderName] {
		tags = append(tags, folderName)
		seen[folderName] = true
	}

	if yearStr != "" && !seen[yearStr] {
		tags = append(tags, yearStr)
	}

	return tags
}
