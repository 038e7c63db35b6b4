// Package planfile stores the mine plan in a YAML or JSON file and watches it
// for external edits.
package planfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/mineplan/core/model"
	"github.com/kilianp07/mineplan/core/planner"
	"github.com/kilianp07/mineplan/infra/logger"
)

// FileSource implements planner.Source on top of a single plan file.
type FileSource struct {
	path   string
	format string
	mu     sync.Mutex
	log    logger.Logger
}

// New returns a FileSource for path. The format is taken from the extension.
func New(path string) (*FileSource, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{path: path, format: format, log: logger.New("planfile")}, nil
}

// Path returns the plan file location.
func (s *FileSource) Path() string { return s.path }

func formatOf(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return "yaml", nil
	case ".json":
		return "json", nil
	default:
		return "", fmt.Errorf("unsupported plan format: %s", ext)
	}
}

// LoadPlan reads a plan from a JSON or YAML file.
func LoadPlan(path string) (model.Plan, error) {
	format, err := formatOf(path)
	if err != nil {
		return model.Plan{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return model.Plan{}, err
	}
	defer f.Close()
	return DecodePlan(f, format)
}

// DecodePlan reads from r to decode a plan. An empty document yields an
// empty plan.
func DecodePlan(r io.Reader, format string) (model.Plan, error) {
	var plan model.Plan
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&plan); err != nil && err != io.EOF {
			return plan, fmt.Errorf("decode yaml plan: %w", err)
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&plan); err != nil && err != io.EOF {
			return plan, fmt.Errorf("decode json plan: %w", err)
		}
	default:
		return plan, fmt.Errorf("unsupported format: %s", format)
	}
	return plan, nil
}

// EncodePlan writes plan to w in the given format.
func EncodePlan(w io.Writer, plan model.Plan, format string) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plan); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// Load implements planner.Source.
func (s *FileSource) Load(ctx context.Context) (model.Plan, error) {
	if err := ctx.Err(); err != nil {
		return model.Plan{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return LoadPlan(s.path)
}

// ToggleSite implements planner.Source. The file is rewritten through a
// temporary file so readers never see a partial plan.
func (s *FileSource) ToggleSite(ctx context.Context, id string) (model.Site, error) {
	if err := ctx.Err(); err != nil {
		return model.Site{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, err := LoadPlan(s.path)
	if err != nil {
		return model.Site{}, err
	}
	want := model.NormalizeSiteID(id)
	idx := -1
	for i := range plan.Sites {
		if model.NormalizeSiteID(plan.Sites[i].SiteID) == want {
			idx = i
			break
		}
	}
	if want == "" || idx < 0 {
		return model.Site{}, fmt.Errorf("%w: %s", planner.ErrSiteNotFound, id)
	}
	plan.Sites[idx].IsActive = !plan.Sites[idx].IsActive
	if err := s.write(plan); err != nil {
		return model.Site{}, err
	}
	s.log.Infow("site toggled", map[string]any{
		"site_id":   plan.Sites[idx].SiteID,
		"is_active": plan.Sites[idx].IsActive,
	})
	return plan.Sites[idx], nil
}

func (s *FileSource) write(plan model.Plan) error {
	var buf bytes.Buffer
	if err := EncodePlan(&buf, plan, s.format); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".plan-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
