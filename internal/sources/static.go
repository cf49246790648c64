package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pulsefeed/pulse/internal/models"
)

// The static adapters read curated YAML files from the content
// directory: project launches, certifications and changelog entries.
// These are build-time data in the original site; here they are
// re-read on every pass so edits show up on the next refresh.

type projectRecord struct {
	ID         string    `yaml:"id"`
	Name       string    `yaml:"name"`
	Summary    string    `yaml:"summary"`
	Tags       []string  `yaml:"tags"`
	Repository string    `yaml:"repository"`
	Launched   time.Time `yaml:"launched"`
	Stars      int64     `yaml:"stars"`
}

type certificationRecord struct {
	ID     string    `yaml:"id"`
	Title  string    `yaml:"title"`
	Issuer string    `yaml:"issuer"`
	Earned time.Time `yaml:"earned"`
	Tags   []string  `yaml:"tags"`
}

type changelogRecord struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Date        time.Time `yaml:"date"`
	Tags        []string  `yaml:"tags"`
}

// ProjectsAdapter emits one item per launched project from
// projects.yaml.
type ProjectsAdapter struct {
	path string
}

// NewProjectsAdapter creates a projects adapter over contentDir.
func NewProjectsAdapter(contentDir string) *ProjectsAdapter {
	return &ProjectsAdapter{path: filepath.Join(contentDir, "projects.yaml")}
}

func (a *ProjectsAdapter) Name() string          { return "projects" }
func (a *ProjectsAdapter) Source() models.Source { return models.SourceProject }

func (a *ProjectsAdapter) Fetch(ctx context.Context) ([]models.ActivityItem, error) {
	var doc struct {
		Projects []projectRecord `yaml:"projects"`
	}
	if err := loadYAML(a.path, &doc); err != nil {
		return nil, err
	}

	items := make([]models.ActivityItem, 0, len(doc.Projects))
	for _, project := range doc.Projects {
		item := models.ActivityItem{
			ID:            project.ID,
			Source:        models.SourceProject,
			Timestamp:     project.Launched,
			Title:         fmt.Sprintf("Launched %s", project.Name),
			Description:   project.Summary,
			Tags:          project.Tags,
			RepositoryKey: project.Repository,
		}
		if project.Stars > 0 {
			item.Stats = &models.Stats{Stars: project.Stars}
		}
		items = append(items, item)
	}
	return items, nil
}

// CertificationsAdapter emits one item per earned certification from
// certifications.yaml.
type CertificationsAdapter struct {
	path string
}

// NewCertificationsAdapter creates a certifications adapter over contentDir.
func NewCertificationsAdapter(contentDir string) *CertificationsAdapter {
	return &CertificationsAdapter{path: filepath.Join(contentDir, "certifications.yaml")}
}

func (a *CertificationsAdapter) Name() string          { return "certifications" }
func (a *CertificationsAdapter) Source() models.Source { return models.SourceCertification }

func (a *CertificationsAdapter) Fetch(ctx context.Context) ([]models.ActivityItem, error) {
	var doc struct {
		Certifications []certificationRecord `yaml:"certifications"`
	}
	if err := loadYAML(a.path, &doc); err != nil {
		return nil, err
	}

	items := make([]models.ActivityItem, 0, len(doc.Certifications))
	for _, cert := range doc.Certifications {
		items = append(items, models.ActivityItem{
			ID:          cert.ID,
			Source:      models.SourceCertification,
			Timestamp:   cert.Earned,
			Title:       fmt.Sprintf("Earned %s", cert.Title),
			Description: fmt.Sprintf("Issued by %s", cert.Issuer),
			Tags:        cert.Tags,
		})
	}
	return items, nil
}

// ChangelogAdapter emits one item per site changelog entry from
// changelog.yaml.
type ChangelogAdapter struct {
	path string
}

// NewChangelogAdapter creates a changelog adapter over contentDir.
func NewChangelogAdapter(contentDir string) *ChangelogAdapter {
	return &ChangelogAdapter{path: filepath.Join(contentDir, "changelog.yaml")}
}

func (a *ChangelogAdapter) Name() string          { return "changelog" }
func (a *ChangelogAdapter) Source() models.Source { return models.SourceChangelog }

func (a *ChangelogAdapter) Fetch(ctx context.Context) ([]models.ActivityItem, error) {
	var doc struct {
		Entries []changelogRecord `yaml:"entries"`
	}
	if err := loadYAML(a.path, &doc); err != nil {
		return nil, err
	}

	items := make([]models.ActivityItem, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		items = append(items, models.ActivityItem{
			ID:          entry.ID,
			Source:      models.SourceChangelog,
			Timestamp:   entry.Date,
			Title:       entry.Title,
			Description: entry.Description,
			Tags:        entry.Tags,
		})
	}
	return items, nil
}

func loadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
