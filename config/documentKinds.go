package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	LayoutStructured = "structured"
	LayoutMarkup     = "markup"
)

// PageMargins are in millimetres.
type PageMargins struct {
	Top    float64 `yaml:"top"`
	Right  float64 `yaml:"right"`
	Bottom float64 `yaml:"bottom"`
	Left   float64 `yaml:"left"`
}

// KindPolicy holds the per-document-kind rendering and assembly rules.
//
// RequireHistorical decides whether a missing predecessor meeting fails the
// report. Document kinds historically disagree on this, so it stays a flag.
type KindPolicy struct {
	Title             string      `yaml:"title"`
	Layout            string      `yaml:"layout"`
	Template          string      `yaml:"template"`
	RequiresCompany   bool        `yaml:"requires_company"`
	RequireHistorical bool        `yaml:"require_historical"`
	RequireRows       bool        `yaml:"require_rows"`
	Margins           PageMargins `yaml:"margins"`
	HeaderTemplate    string      `yaml:"header_template"`
	FooterTemplate    string      `yaml:"footer_template"`
}

// kindPolicyFile mirrors KindPolicy with optional fields so a file only
// needs to mention what it overrides.
type kindPolicyFile struct {
	Title             *string      `yaml:"title"`
	Layout            *string      `yaml:"layout"`
	Template          *string      `yaml:"template"`
	RequiresCompany   *bool        `yaml:"requires_company"`
	RequireHistorical *bool        `yaml:"require_historical"`
	RequireRows       *bool        `yaml:"require_rows"`
	Margins           *PageMargins `yaml:"margins"`
	HeaderTemplate    *string      `yaml:"header_template"`
	FooterTemplate    *string      `yaml:"footer_template"`
}

type documentKindsFile struct {
	Kinds map[string]kindPolicyFile `yaml:"kinds"`
}

const defaultFooterTemplate = `<div style="font-size:8px;width:100%;text-align:center;"><span class="pageNumber"></span> / <span class="totalPages"></span></div>`

var defaultMargins = PageMargins{Top: 25, Right: 15, Bottom: 20, Left: 15}

func defaultKindPolicies() map[string]KindPolicy {
	return map[string]KindPolicy{
		"agenda": {
			Title:   "Agenda of the Rating Committee Meeting",
			Layout:  LayoutStructured,
			Margins: defaultMargins,
		},
		"rating_sheet": {
			Title:   "Rating Sheet",
			Layout:  LayoutStructured,
			Margins: defaultMargins,
		},
		"mom": {
			Title:             "Minutes of the Rating Committee Meeting",
			Layout:            LayoutMarkup,
			Template:          "mom.html",
			RequireHistorical: true,
			Margins:           defaultMargins,
			HeaderTemplate:    `<div style="font-size:8px;width:100%;text-align:right;padding-right:15mm;">Minutes of the Rating Committee Meeting</div>`,
			FooterTemplate:    defaultFooterTemplate,
		},
		"press_release": {
			Title:           "Press Release",
			Layout:          LayoutMarkup,
			Template:        "press_release.html",
			RequiresCompany: true,
			RequireRows:     true,
			Margins:         defaultMargins,
			FooterTemplate:  defaultFooterTemplate,
		},
		"rating_letter": {
			Title:           "Rating Letter",
			Layout:          LayoutMarkup,
			Template:        "rating_letter.html",
			RequiresCompany: true,
			RequireRows:     true,
			Margins:         PageMargins{Top: 40, Right: 20, Bottom: 25, Left: 20},
			FooterTemplate:  defaultFooterTemplate,
		},
		"provisional_communication": {
			Title:           "Provisional Communication of Rating",
			Layout:          LayoutMarkup,
			Template:        "provisional_communication.html",
			RequiresCompany: true,
			RequireRows:     true,
			Margins:         PageMargins{Top: 40, Right: 20, Bottom: 25, Left: 20},
			FooterTemplate:  defaultFooterTemplate,
		},
	}
}

// KindPolicies is safe for concurrent use; Reload swaps the whole set.
type KindPolicies struct {
	mu       sync.RWMutex
	path     string
	policies map[string]KindPolicy
	reloads  atomic.Int64
}

func DefaultKindPolicies() *KindPolicies {
	return &KindPolicies{policies: defaultKindPolicies()}
}

// LoadKindPolicies reads path (if not empty) over the built-in defaults.
func LoadKindPolicies(path string) (*KindPolicies, error) {
	k := &KindPolicies{path: path, policies: defaultKindPolicies()}
	if path == "" {
		return k, nil
	}
	if err := k.Reload(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *KindPolicies) Policy(kind string) (KindPolicy, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	p, ok := k.policies[kind]
	return p, ok
}

// Set overrides a single policy in memory.
func (k *KindPolicies) Set(kind string, policy KindPolicy) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.policies[kind] = policy
}

func (k *KindPolicies) Reload() error {
	if k.path == "" {
		return nil
	}
	b, err := os.ReadFile(k.path)
	if err != nil {
		return fmt.Errorf("read document kinds file: %w", err)
	}
	policies, err := parseKindPolicies(b)
	if err != nil {
		return err
	}
	k.mu.Lock()
	k.policies = policies
	k.mu.Unlock()
	return nil
}

func parseKindPolicies(b []byte) (map[string]KindPolicy, error) {
	var file documentKindsFile
	if err := yaml.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("parse document kinds file: %w", err)
	}
	policies := defaultKindPolicies()
	for kind, override := range file.Kinds {
		base, ok := policies[kind]
		if !ok {
			return nil, fmt.Errorf("unknown document kind %q", kind)
		}
		policies[kind] = override.apply(base)
	}
	for kind, p := range policies {
		if p.Layout != LayoutStructured && p.Layout != LayoutMarkup {
			return nil, fmt.Errorf("document kind %q: invalid layout %q", kind, p.Layout)
		}
	}
	return policies, nil
}

func (o kindPolicyFile) apply(p KindPolicy) KindPolicy {
	if o.Title != nil {
		p.Title = *o.Title
	}
	if o.Layout != nil {
		p.Layout = *o.Layout
	}
	if o.Template != nil {
		p.Template = *o.Template
	}
	if o.RequiresCompany != nil {
		p.RequiresCompany = *o.RequiresCompany
	}
	if o.RequireHistorical != nil {
		p.RequireHistorical = *o.RequireHistorical
	}
	if o.RequireRows != nil {
		p.RequireRows = *o.RequireRows
	}
	if o.Margins != nil {
		p.Margins = *o.Margins
	}
	if o.HeaderTemplate != nil {
		p.HeaderTemplate = *o.HeaderTemplate
	}
	if o.FooterTemplate != nil {
		p.FooterTemplate = *o.FooterTemplate
	}
	return p
}

// reloadDebounce collapses the burst of events a single save produces.
const reloadDebounce = 250 * time.Millisecond

// Watch reloads the policy file after it changes until ctx is done. Events
// arriving within reloadDebounce of each other cause a single reload.
// The parent directory is watched because editors replace files by rename.
func (k *KindPolicies) Watch(ctx context.Context, logger *logrus.Logger) error {
	if k.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	target := filepath.Clean(k.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		timer := time.NewTimer(reloadDebounce)
		if !timer.Stop() {
			<-timer.C
		}
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != target {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				timer.Reset(reloadDebounce)
			case <-timer.C:
				k.reloads.Add(1)
				if err := k.Reload(); err != nil {
					LogError(logger, "config", "KindPolicies.Watch", "reload", k.path, err)
					continue
				}
				if logger != nil {
					logger.WithField("path", k.path).Info("[document_kinds.reloaded]")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				LogError(logger, "config", "KindPolicies.Watch", "watcher", nil, err)
			}
		}
	}()
	return nil
}
