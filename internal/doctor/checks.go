package doctor

import (
	"fmt"
	"strings"

	"github.com/tilework-tech/nori-profiles/internal/diskconfig"
	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/installdir"
	"github.com/tilework-tech/nori-profiles/internal/loader"
)

// ConfigCheck validates the disk config of an installation.
type ConfigCheck struct {
	installDir string
}

var _ Check = (*ConfigCheck)(nil)

// NewConfigCheck creates a check of the config in installDir.
func NewConfigCheck(installDir string) *ConfigCheck {
	return &ConfigCheck{installDir: installDir}
}

// Name returns the unique identifier for this check.
func (c *ConfigCheck) Name() string { return "disk-config" }

// Category returns the grouping for this check.
func (c *ConfigCheck) Category() string { return "config" }

// Run loads and validates the config file.
func (c *ConfigCheck) Run() *CheckResult {
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	cfg, err := diskconfig.Load(c.installDir)
	if err != nil {
		result.Status = SeverityError
		result.Message = "config file cannot be read"
		result.Problems = []string{err.Error()}
		result.FixHint = "Fix or delete the file, then run: nori install"
		return result
	}
	if !cfg.Exists {
		result.Status = SeverityError
		result.Message = "no config file in " + c.installDir
		result.FixHint = "Run: nori install"
		return result
	}

	result.Details = MaskDetails(map[string]any{
		"path":     cfg.Path,
		"username": cfg.Username,
		"password": cfg.Password,
		"paid":     cfg.IsPaid(),
	})

	if err := cfg.Validate(); err != nil {
		var ve *diskconfig.ValidationError
		if errors.As(err, &ve) {
			result.Problems = ve.Problems
		} else {
			result.Problems = []string{err.Error()}
		}
		result.Status = SeverityError
		result.Message = fmt.Sprintf("%d problem(s) in %s", len(result.Problems), cfg.Path)
		result.FixHint = "Edit " + cfg.Path + " and run: nori check"
		return result
	}

	result.Status = SeverityPass
	result.Message = "config is valid"
	return result
}

// NestingCheck detects installations above or at a directory.
type NestingCheck struct {
	dir string
}

var _ Check = (*NestingCheck)(nil)

// NewNestingCheck creates a check walking up from dir.
func NewNestingCheck(dir string) *NestingCheck {
	return &NestingCheck{dir: dir}
}

// Name returns the unique identifier for this check.
func (c *NestingCheck) Name() string { return "nested-installations" }

// Category returns the grouping for this check.
func (c *NestingCheck) Category() string { return "install" }

// Run reports a warning when more than one installation is reachable.
func (c *NestingCheck) Run() *CheckResult {
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	dirs, err := installdir.GetInstallDirs(c.dir)
	if err != nil {
		result.Status = SeverityError
		result.Message = err.Error()
		return result
	}

	switch len(dirs) {
	case 0:
		result.Status = SeverityError
		result.Message = "no installation found from " + c.dir
		result.FixHint = "Run: nori install"
	case 1:
		result.Status = SeverityPass
		result.Message = "single installation at " + dirs[0]
	default:
		result.Status = SeverityWarning
		result.Message = fmt.Sprintf("%d nested installations: %s", len(dirs), strings.Join(dirs, ", "))
		result.FixHint = installdir.Remediation(dirs)
	}
	result.Details = map[string]any{"installDirs": dirs}
	return result
}

// LoaderCheck reports the installed state of one loader.
type LoaderCheck struct {
	validator loader.Validator
	name      string
	lc        *loader.Context
}

var _ Check = (*LoaderCheck)(nil)

// LoaderChecks returns a check for every loader in reg that can validate.
func LoaderChecks(reg *loader.Registry, lc *loader.Context) []Check {
	var checks []Check
	for _, l := range reg.All() {
		v, ok := l.(loader.Validator)
		if !ok {
			continue
		}
		checks = append(checks, &LoaderCheck{validator: v, name: l.Name(), lc: lc})
	}
	return checks
}

// Name returns the loader name.
func (c *LoaderCheck) Name() string { return c.name }

// Category returns the grouping for this check.
func (c *LoaderCheck) Category() string { return "loader" }

// Run validates the loader's installed artifacts.
func (c *LoaderCheck) Run() *CheckResult {
	v := c.validator.Validate(c.lc)
	result := &CheckResult{
		Name:     c.name,
		Category: c.Category(),
		Message:  v.Message,
		Problems: v.Errors,
	}
	if v.Valid {
		result.Status = SeverityPass
		return result
	}
	result.Status = SeverityError
	result.FixHint = "Run: nori install"
	return result
}
