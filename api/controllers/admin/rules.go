package admin

import (
	"net/http"
	"time"

	"github.com/angelmondragon/seedling-limiter/api/responses"
	"github.com/angelmondragon/seedling-limiter/api/validators"
	"github.com/angelmondragon/seedling-limiter/internal/limiter"
	"github.com/angelmondragon/seedling-limiter/internal/rules"
	pkgerrors "github.com/angelmondragon/seedling-limiter/pkg/errors"
	"github.com/angelmondragon/seedling-limiter/pkg/logger"
)

// RulesResponse is the admin view of the active rule configuration.
type RulesResponse struct {
	DefaultStep int            `json:"default_step"`
	Stored      bool           `json:"stored"`
	LoadedAt    time.Time      `json:"loaded_at"`
	Rules       []limiter.Rule `json:"rules"`
}

func newRulesResponse(snap rules.Snapshot) RulesResponse {
	list := []limiter.Rule{}
	if snap.Rules != nil {
		list = append(list, snap.Rules.Rules()...)
	}
	return RulesResponse{
		DefaultStep: snap.DefaultStep,
		Stored:      snap.Stored,
		LoadedAt:    snap.LoadedAt.UTC(),
		Rules:       list,
	}
}

func serviceUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "rules service unavailable")
}

// RulesFetch returns the rule snapshot currently served to storefront requests.
func RulesFetch(svc rules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}
		snap, ok := svc.Snapshot()
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConfiguration, "limiter rules not loaded"))
			return
		}
		responses.WriteSuccess(w, newRulesResponse(snap))
	}
}

// RulesReplace stores a full rule configuration and swaps it in atomically.
func RulesReplace(svc rules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}

		var payload rules.ReplaceInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := svc.Replace(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithField(r.Context(), "rules", snap.Rules.Len()), "admin.rules.replaced")
		}
		responses.WriteSuccess(w, newRulesResponse(snap))
	}
}

func RulesReload(svc rules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}
		snap, err := svc.Load(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newRulesResponse(snap))
	}
}

// RulesReset purges stored configuration and reloads, falling back to the configured defaults.
func RulesReset(svc rules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable())
			return
		}
		snap, err := svc.Reset(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Warn(r.Context(), "admin.rules.reset")
		}
		responses.WriteSuccess(w, newRulesResponse(snap))
	}
}
