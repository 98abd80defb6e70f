package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/yuqie6/LifeRPG/internal/bootstrap"
	"github.com/yuqie6/LifeRPG/internal/dto"
	"github.com/yuqie6/LifeRPG/internal/schema"
	"github.com/yuqie6/LifeRPG/internal/service"
)

type apiServer struct {
	core      *bootstrap.Core
	now       func() time.Time
	startTime time.Time
}

func newAPI(core *bootstrap.Core) *apiServer {
	return &apiServer{core: core, now: time.Now, startTime: time.Now()}
}

// ========== routes ==========

func (a *apiServer) registerJSONRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/status", a.getStatus)
	mux.HandleFunc("GET /api/report", a.getReport)
	mux.HandleFunc("GET /api/state", a.getState)
	mux.HandleFunc("GET /api/quests", a.getQuests)

	mux.HandleFunc("POST /api/entries", a.logEntry)
	mux.HandleFunc("DELETE /api/entries/{id}", a.deleteEntry)
	mux.HandleFunc("POST /api/quick-actions", a.addQuickAction)
	mux.HandleFunc("DELETE /api/quick-actions/{id}", a.removeQuickAction)
	mux.HandleFunc("POST /api/tags", a.tagActivity)
	mux.HandleFunc("POST /api/events", a.addEvent)

	mux.HandleFunc("POST /api/quests/{id}/complete", a.completeQuest)
	mux.HandleFunc("POST /api/quests/{id}/reroll", a.rerollQuest)
	mux.HandleFunc("POST /api/quests/{id}/snooze", a.snoozeQuest)
	mux.HandleFunc("POST /api/quests/{id}/skip", a.skipQuest)

	mux.HandleFunc("POST /api/tick", a.tick)
}

func (a *apiServer) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 10*time.Second)
}

// respond 统一变更类接口的输出：存储错误 500，校验失败 422
func respond(w http.ResponseWriter, result any, ok bool, err error) {
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusOK
	if !ok {
		status = http.StatusUnprocessableEntity
		result = nil
	}
	writeJSON(w, status, dto.MutationDTO{OK: ok, Result: result})
}

// ========== handlers ==========

func (a *apiServer) getStatus(w http.ResponseWriter, r *http.Request) {
	cfg := a.core.Cfg
	path := cfg.Storage.DBPath
	if cfg.Storage.Engine == "json" {
		path = cfg.Storage.JSONPath
	}
	stats := a.core.Services.Scheduler.Stats()
	published, dropped := a.core.Hub.Stats()
	writeJSON(w, http.StatusOK, dto.StatusDTO{
		App: dto.AppStatusDTO{
			Name:        cfg.App.Name,
			Version:     cfg.App.Version,
			StartedAt:   a.startTime.Format(time.RFC3339),
			UptimeSec:   int64(time.Since(a.startTime).Seconds()),
			Subscribers: a.core.Hub.Subscribers(),
			Published:   published,
			Dropped:     dropped,
		},
		Storage: dto.StorageStatusDTO{
			Engine:      cfg.Storage.Engine,
			Path:        path,
			SnapshotKey: cfg.Storage.SnapshotKey,
		},
		Scheduler: dto.SchedulerStatusDTO{
			Running:  stats.Running,
			Interval: stats.Interval,
			Ticks:    stats.Ticks,
			Errors:   stats.Errors,
		},
	})
}

func (a *apiServer) getReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.ctx(r)
	defer cancel()
	rep, err := a.core.Services.Progress.Report(ctx, a.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (a *apiServer) getState(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.ctx(r)
	defer cancel()
	st, err := a.core.Services.Progress.Snapshot(ctx, a.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *apiServer) getQuests(w http.ResponseWriter, r *http.Request) {
	period := schema.Period(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("period"))))
	if period != "" && !period.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid period")
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()
	quests, err := a.core.Services.Progress.Quests(ctx, period, a.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if quests == nil {
		quests = []schema.Quest{}
	}
	writeJSON(w, http.StatusOK, quests)
}

func (a *apiServer) logEntry(w http.ResponseWriter, r *http.Request) {
	var req dto.LogEntryRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()
	e, ok, err := a.core.Services.Progress.LogActivity(ctx, service.EntryInput{Name: req.Name, BaseExp: req.Exp, Track: req.Track}, a.now())
	respond(w, e, ok, err)
}

func (a *apiServer) deleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.ctx(r)
	defer cancel()
	e, ok, err := a.core.Services.Progress.DeleteEntry(ctx, r.PathValue("id"), a.now())
	respond(w, e, ok, err)
}

func (a *apiServer) addQuickAction(w http.ResponseWriter, r *http.Request) {
	var req dto.QuickActionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()
	qa, ok, err := a.core.Services.Progress.AddQuickAction(ctx, req.Name, req.Exp, a.now())
	respond(w, qa, ok, err)
}

func (a *apiServer) removeQuickAction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.ctx(r)
	defer cancel()
	ok, err := a.core.Services.Progress.RemoveQuickAction(ctx, r.PathValue("id"), a.now())
	respond(w, nil, ok, err)
}

func (a *apiServer) tagActivity(w http.ResponseWriter, r *http.Request) {
	var req dto.TagRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()
	ok, err := a.core.Services.Progress.TagActivity(ctx, req.Name, req.Track, schema.TimeCost(req.TimeCost), a.now())
	respond(w, nil, ok, err)
}

func (a *apiServer) addEvent(w http.ResponseWriter, r *http.Request) {
	var req dto.EventRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()
	ev, ok, err := a.core.Services.Progress.AddEvent(ctx, req.Title, req.Amount, req.Exp, a.now())
	respond(w, ev, ok, err)
}

func (a *apiServer) completeQuest(w http.ResponseWriter, r *http.Request) {
	var req dto.CompleteQuestRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()
	e, ok, err := a.core.Services.Progress.CompleteQuest(ctx, r.PathValue("id"), req.Quality, a.now())
	respond(w, e, ok, err)
}

func (a *apiServer) rerollQuest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.ctx(r)
	defer cancel()
	q, ok, err := a.core.Services.Progress.RerollQuest(ctx, r.PathValue("id"), a.now())
	respond(w, q, ok, err)
}

func (a *apiServer) snoozeQuest(w http.ResponseWriter, r *http.Request) {
	var req dto.SnoozeQuestRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()
	q, ok, err := a.core.Services.Progress.SnoozeQuest(ctx, r.PathValue("id"), req.Until, a.now())
	respond(w, q, ok, err)
}

func (a *apiServer) skipQuest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.ctx(r)
	defer cancel()
	q, ok, err := a.core.Services.Progress.SkipQuest(ctx, r.PathValue("id"), a.now())
	respond(w, q, ok, err)
}

func (a *apiServer) tick(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.ctx(r)
	defer cancel()
	res, err := a.core.Services.Progress.Tick(ctx, a.now())
	respond(w, res, true, err)
}
