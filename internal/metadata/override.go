package metadata

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const overrideFileName = ".yt-meta.yaml"

// folderOverride is the shape of a per-folder .yt-meta.yaml: any field left
// unset does not override the base template configuration.
type folderOverride struct {
	TitleTemplate       *string  `yaml:"title_template"`
	DescriptionTemplate *string  `yaml:"description_template"`
	Tags                []string `yaml:"tags"`
	ExtraTags           []string `yaml:"extra_tags"`
}

// templateConfig is the resolved title/description/tags configuration for
// one folder, after merging any override on top of the base config.
type templateConfig struct {
	TitleTemplate       string
	DescriptionTemplate string
	Tags                []string
}

// loadFolderOverride reads folder/.yt-meta.yaml if present. A missing file
// is not an error; a malformed one is logged by the caller and treated as
// absent, since metadata generation must never block an upload.
func loadFolderOverride(folder string) (*folderOverride, error) {
	data, err := os.ReadFile(filepath.Join(folder, overrideFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil //nolint:nilnil // absent override is not an error
		}

		return nil, err
	}

	var override folderOverride

	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, err
	}

	return &override, nil
}

func resolveTemplateConfig(base templateConfig, folder string, logWarn func(string, error)) templateConfig {
	resolved := templateConfig{
		TitleTemplate:       base.TitleTemplate,
		DescriptionTemplate: base.DescriptionTemplate,
		Tags:                append([]string(nil), base.Tags...),
	}

	override, err := loadFolderOverride(folder)
	if err != nil {
		logWarn("failed to read folder override", err)

		return resolved
	}

	if override == nil {
		return resolved
	}

	if override.TitleTemplate != nil {
		resolved.TitleTemplate = *override.TitleTemplate
	}

	if override.DescriptionTemplate != nil {
		resolved.DescriptionTemplate = *override.DescriptionTemplate
	}

	if override.Tags != nil {
		resolved.Tags = append([]string(nil), override.Tags...)
	}

	if len(override.ExtraTags) > 0 {
		seen := make(map[string]bool, len(resolved.Tags))
		for _, t := range resolved.Tags {
			seen[t] = true
		}

		for _, t := range override.ExtraTags {
			if seen[t] {
				continue
			}

			resolved.Tags = append(resolved.Tags, t)
			seen[t] = true
		}
	}

	return resolved
}
