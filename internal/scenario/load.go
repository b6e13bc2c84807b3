package scenario

import (
	"path/filepath"
	"strings"

	"github.com/louisbranch/skirmish/internal/combat"
	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
)

// Load picks a loader from the file extension: .lua, .yaml or .yml.
func Load(path string) (*combat.Scenario, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lua":
		return LoadLua(path)
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return nil, apperrors.WithMetadata(apperrors.CodeValidationFailed, "unsupported scenario format",
			map[string]string{"Reason": "scenario files end in .lua, .yaml or .yml: " + path})
	}
}
