package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/schavery/qup-optimizer/internal/optimizer"
	"github.com/schavery/qup-optimizer/internal/rules"
	"github.com/schavery/qup-optimizer/internal/sim"
)

// maxCandidates caps one generation request so a single call cannot pin the
// server.
const maxCandidates = 1000

type errResp struct {
	Err string `json:"error"`
}

type server struct {
	loader *rules.Loader
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errResp{Err: err.Error()})
}

func (s *server) ruleset(w http.ResponseWriter) (*rules.Ruleset, bool) {
	rs, err := s.loader.Load()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errResp{Err: err.Error()})
		return nil, false
	}
	return rs, true
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rs, err := s.loader.Load()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errResp{Err: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": rs.Version,
		"nodes":   len(rs.Static) + len(rs.Movable),
	})
}

func (s *server) handleNodes(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.ruleset(w)
	if !ok {
		return
	}

	type nodeView struct {
		Name     string              `json:"name"`
		Static   bool                `json:"static"`
		Position *[3]int             `json:"position,omitempty"`
		Triggers []rules.TriggerType `json:"triggers"`
		BaseAVS  *int                `json:"base_avs"`
		Effect   rules.EffectKind    `json:"effect"`
		Params   rules.EffectParams  `json:"params"`
		MaxPts   int                 `json:"max_upgrade_points"`
	}

	view := func(def *rules.NodeDef) nodeView {
		nv := nodeView{
			Name: def.Name, Static: def.Static,
			Triggers: def.Triggers, BaseAVS: def.BaseAVS,
			Effect: def.Effect, Params: def.Params,
			MaxPts: def.MaxUpgradePoints(),
		}
		if def.Static {
			nv.Position = &[3]int{def.Position.Q, def.Position.R, def.Position.S}
		}
		return nv
	}

	out := struct {
		GridRadius int        `json:"grid_radius"`
		Anchor     string     `json:"anchor"`
		Static     []nodeView `json:"static"`
		Movable    []nodeView `json:"movable"`
	}{GridRadius: rs.GridRadius, Anchor: rs.Anchor}

	for _, def := range rs.Static {
		out.Static = append(out.Static, view(def))
	}
	for _, def := range rs.Movable {
		out.Movable = append(out.Movable, view(def))
	}
	sort.Slice(out.Static, func(i, j int) bool { return out.Static[i].Name < out.Static[j].Name })
	sort.Slice(out.Movable, func(i, j int) bool { return out.Movable[i].Name < out.Movable[j].Name })
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleRanks(w http.ResponseWriter, r *http.Request) {
	out := make([]rules.RankRewards, 0, rules.MaxRank)
	for i := rules.MinRank; i <= rules.MaxRank; i++ {
		out = append(out, rules.RankFor(i))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleRank(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		badRequest(w, errors.New("invalid rank"))
		return
	}
	if n < rules.MinRank || n > rules.MaxRank {
		badRequest(w, errors.New("rank out of range 1-40"))
		return
	}
	writeJSON(w, http.StatusOK, rules.RankFor(n))
}

func (s *server) handleOutcomes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"outcomes": sim.Outcomes(),
		"count":    len(sim.Outcomes()),
	})
}

type evalReq struct {
	Layout       sim.Layout   `json:"layout"`
	Upgrades     sim.Upgrades `json:"upgrades"`
	Rank         int          `json:"rank"`
	InitialBonus int          `json:"initial_bonus"`
	Teammates    int          `json:"teammates"`
	Seed         uint64       `json:"seed"`
}

func (rq *evalReq) validateRank() error {
	if rq.Rank < rules.MinRank || rq.Rank > rules.MaxRank {
		return errors.New("rank out of range 1-40")
	}
	return nil
}

func (s *server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evalReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, err)
		return
	}
	if err := req.validateRank(); err != nil {
		badRequest(w, err)
		return
	}
	rs, ok := s.ruleset(w)
	if !ok {
		return
	}

	gen := optimizer.NewGenerator(rs, req.Seed)
	eval := optimizer.NewEvaluator(rs, req.Rank, req.Seed,
		optimizer.WithTeammates(req.Teammates),
		optimizer.WithAdjacencyScorer(gen))
	res, err := eval.Evaluate(req.Layout, req.Upgrades, req.InitialBonus)
	if err != nil {
		badRequest(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type generateReq struct {
	evalReq
	Count    int    `json:"count"`
	Strategy string `json:"strategy"`
	Top      int    `json:"top"`
}

func (s *server) handleGenerateLayouts(w http.ResponseWriter, r *http.Request) {
	var req generateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, err)
		return
	}
	if req.Count <= 0 {
		req.Count = 100
	}
	if req.Count > maxCandidates {
		badRequest(w, errors.New("count exceeds limit of 1000"))
		return
	}
	if err := req.validateRank(); err != nil {
		badRequest(w, err)
		return
	}
	rs, ok := s.ruleset(w)
	if !ok {
		return
	}

	gen := optimizer.NewGenerator(rs, req.Seed)
	layouts, err := gen.Generate(req.Count, optimizer.Strategy(req.Strategy))
	if err != nil {
		badRequest(w, err)
		return
	}

	eval := optimizer.NewEvaluator(rs, req.Rank, req.Seed,
		optimizer.WithTeammates(req.Teammates),
		optimizer.WithAdjacencyScorer(gen))

	results := make([]*optimizer.Result, 0, len(layouts))
	for _, layout := range layouts {
		res, err := eval.Evaluate(layout, req.Upgrades, req.InitialBonus)
		if err != nil {
			badRequest(w, err)
			return
		}
		results = append(results, res)
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Better(results[j]) })

	top := req.Top
	if top <= 0 || top > len(results) {
		top = len(results)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results[:top],
		"cache":   eval.CacheStats(),
	})
}

type upgradesReq struct {
	Budget       int    `json:"budget"`
	Mode         string `json:"mode"` // "exhaustive" or "tiered"
	Limit        int    `json:"limit"`
	MinAnchorAVS int    `json:"min_anchor_avs"`
	SkipNoops    bool   `json:"skip_noops"`
}

func (s *server) handleGenerateUpgrades(w http.ResponseWriter, r *http.Request) {
	var req upgradesReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, err)
		return
	}
	if req.Budget < 0 {
		badRequest(w, errors.New("budget must be non-negative"))
		return
	}
	rs, ok := s.ruleset(w)
	if !ok {
		return
	}

	ug := optimizer.NewUpgradeGenerator(rs)
	var configs []sim.Upgrades
	switch req.Mode {
	case "tiered":
		configs = ug.Tiered(req.Budget, req.Limit)
	default:
		configs = ug.EnumerateAll(req.Budget, optimizer.EnumerateOptions{
			MinAnchorAVS: req.MinAnchorAVS,
			SkipNoops:    req.SkipNoops,
		})
		if req.Limit > 0 && len(configs) > req.Limit {
			configs = configs[:req.Limit]
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"configs": configs,
		"count":   len(configs),
	})
}

type refineReq struct {
	evalReq
	MaxIterations int `json:"max_iterations"`
}

func (s *server) handleRefine(w http.ResponseWriter, r *http.Request) {
	var req refineReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, err)
		return
	}
	if err := req.validateRank(); err != nil {
		badRequest(w, err)
		return
	}
	rs, ok := s.ruleset(w)
	if !ok {
		return
	}

	gen := optimizer.NewGenerator(rs, req.Seed)
	eval := optimizer.NewEvaluator(rs, req.Rank, req.Seed,
		optimizer.WithTeammates(req.Teammates),
		optimizer.WithAdjacencyScorer(gen))
	ref := optimizer.NewRefiner(rs, eval, req.Seed+1)

	report, err := ref.Refine(req.Layout, req.Upgrades, req.InitialBonus, req.MaxIterations)
	if err != nil {
		badRequest(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()

	configDir := envOr("QUP_CONFIG_DIR", "config")
	addr := ":" + envOr("PORT", "8080")

	loader := rules.NewLoader(configDir)
	if _, err := loader.Load(); err != nil {
		log.Fatalf("load config: %v", err)
	}

	watcher := rules.NewWatcher(loader, 5*time.Second)
	watcher.Start()
	defer watcher.Stop()

	s := &server{loader: loader}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/nodes", s.handleNodes)
		r.Get("/ranks", s.handleRanks)
		r.Get("/rank/{n}", s.handleRank)
		r.Get("/outcomes", s.handleOutcomes)
		r.Post("/evaluate", s.handleEvaluate)
		r.Post("/generate-layouts", s.handleGenerateLayouts)
		r.Post("/generate-upgrades", s.handleGenerateUpgrades)
		r.Post("/refine", s.handleRefine)
	})

	log.Printf("listening on %s, config dir %s", addr, configDir)
	log.Fatal(http.ListenAndServe(addr, r))
}
