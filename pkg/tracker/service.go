package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/contrack/pkg/contracts"
	"github.com/ethpandaops/contrack/pkg/observability"
	"github.com/ethpandaops/contrack/pkg/store"
)

var (
	// ErrNoValidRows is returned when an overwrite import has nothing left to write
	ErrNoValidRows = errors.New("import has no valid rows, refusing to overwrite")
	// ErrEmailRequired is returned when a user operation has no email
	ErrEmailRequired = errors.New("email is required")
)

// View is one consistent derivation of the stored collection for a single day.
type View struct {
	Date       civil.Date            `json:"date"`
	Params     contracts.AlertConfig `json:"params"`
	Contracts  []contracts.Contract  `json:"contracts"`
	Statistics contracts.Statistics  `json:"statistics"`
	Alerts     []contracts.AlertItem `json:"alerts"`
}

// ImportRequest is one batch submitted for import. Rows stay raw until
// prepareBatch so a single malformed row cannot reject the whole batch.
type ImportRequest struct {
	User     string               `json:"usuario"`
	FileName string               `json:"nome_arquivo"`
	Strategy store.ImportStrategy `json:"tipo_importacao"`
	Rows     []json.RawMessage    `json:"contratos"`
}

// Service answers every read and write against the contract collection
type Service interface {
	Today() civil.Date

	Params(ctx context.Context) (contracts.AlertConfig, error)
	UpdateParams(ctx context.Context, cfg contracts.AlertConfig) (contracts.AlertConfig, error)

	// View loads, classifies and aggregates the collection once
	View(ctx context.Context) (*View, error)
	Contracts(ctx context.Context, spec contracts.FilterSpec) ([]contracts.Contract, error)
	Contract(ctx context.Context, id string) (*contracts.Contract, error)
	Dashboard(ctx context.Context) (*contracts.Statistics, error)
	Alerts(ctx context.Context) ([]contracts.AlertItem, error)
	Natures(ctx context.Context) ([]contracts.NatureSummary, error)
	Options(ctx context.Context) (*contracts.FilterOptions, error)

	Import(ctx context.Context, req ImportRequest) (*store.ImportLog, error)
	Imports(ctx context.Context, limit int) ([]store.ImportLog, error)
	Terminate(ctx context.Context, id string) (*contracts.Contract, error)

	// Evaluate computes and persists an alert snapshot
	Evaluate(ctx context.Context) (*store.AlertSnapshot, error)
	LatestEvaluation(ctx context.Context) (*store.AlertSnapshot, error)

	Role(ctx context.Context, email string) (store.Role, error)
	SetRole(ctx context.Context, email string, role store.Role) (*store.UserProfile, error)
	Users(ctx context.Context) ([]store.UserProfile, error)
}

type service struct {
	log   logrus.FieldLogger
	cfg   *Config
	store store.Store
	clock Clock
}

// New creates a tracker service
func New(log logrus.FieldLogger, cfg *Config, st store.Store, clock Clock) Service {
	return &service{
		log:   log.WithField("service", "tracker"),
		cfg:   cfg,
		store: st,
		clock: clock,
	}
}

func (s *service) Today() civil.Date {
	return s.clock.Today()
}

func (s *service) Params(ctx context.Context) (contracts.AlertConfig, error) {
	cfg, found, err := s.store.Params(ctx)
	if err != nil {
		return contracts.AlertConfig{}, err
	}

	if !found {
		return s.cfg.Alerts, nil
	}

	return cfg, nil
}

func (s *service) UpdateParams(ctx context.Context, cfg contracts.AlertConfig) (contracts.AlertConfig, error) {
	if err := s.store.SaveParams(ctx, cfg); err != nil {
		return contracts.AlertConfig{}, err
	}

	s.log.WithFields(logrus.Fields{
		"alert_60":  cfg.Alert60Days,
		"alert_90":  cfg.Alert90Days,
		"alert_180": cfg.Alert180Days,
	}).Info("Updated alert params")

	return cfg, nil
}

func (s *service) View(ctx context.Context) (*View, error) {
	params, err := s.Params(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load params: %w", err)
	}

	stored, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load contracts: %w", err)
	}

	today := s.clock.Today()
	classified := contracts.ClassifyAll(stored, params, today)
	stats := contracts.Aggregate(classified, params, today)

	return &View{
		Date:       today,
		Params:     params,
		Contracts:  classified,
		Statistics: stats,
		Alerts:     contracts.GenerateAlerts(stats, params, today),
	}, nil
}

func (s *service) Contracts(ctx context.Context, spec contracts.FilterSpec) ([]contracts.Contract, error) {
	view, err := s.View(ctx)
	if err != nil {
		return nil, err
	}

	return contracts.Filter(view.Contracts, spec), nil
}

func (s *service) Contract(ctx context.Context, id string) (*contracts.Contract, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	params, err := s.Params(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load params: %w", err)
	}

	classified := contracts.Classify(*c, params, s.clock.Today())

	return &classified, nil
}

func (s *service) Dashboard(ctx context.Context) (*contracts.Statistics, error) {
	view, err := s.View(ctx)
	if err != nil {
		return nil, err
	}

	return &view.Statistics, nil
}

func (s *service) Alerts(ctx context.Context) ([]contracts.AlertItem, error) {
	view, err := s.View(ctx)
	if err != nil {
		return nil, err
	}

	return view.Alerts, nil
}

func (s *service) Natures(ctx context.Context) ([]contracts.NatureSummary, error) {
	view, err := s.View(ctx)
	if err != nil {
		return nil, err
	}

	return contracts.SummarizeNatures(view.Contracts), nil
}

func (s *service) Options(ctx context.Context) (*contracts.FilterOptions, error) {
	stored, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	opts := contracts.Options(stored)

	return &opts, nil
}

func (s *service) Import(ctx context.Context, req ImportRequest) (*store.ImportLog, error) {
	today := s.clock.Today()

	entry := store.ImportLog{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		User:      req.User,
		FileName:  req.FileName,
		Strategy:  req.Strategy,
	}

	valid, rejected := s.prepareBatch(req, today)
	entry.Ignored = len(rejected)
	entry.Errors = rejected

	if req.Strategy == store.StrategyOverwrite && len(valid) == 0 {
		observability.RecordImport(string(req.Strategy), "failed", 0, 0, entry.Ignored)

		return nil, ErrNoValidRows
	}

	var (
		res store.WriteResult
		err error
	)

	switch req.Strategy {
	case store.StrategyOverwrite:
		res, err = s.store.ReplaceAll(ctx, valid)
	case store.StrategyMerge:
		res, err = s.store.Merge(ctx, valid)
	default:
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidStrategy, req.Strategy)
	}

	if err != nil {
		observability.RecordImport(string(req.Strategy), "failed", 0, 0, entry.Ignored)

		return nil, fmt.Errorf("failed to write import: %w", err)
	}

	entry.Inserted = res.Inserted
	entry.Updated = res.Updated

	if err := s.store.AppendImportLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record import: %w", err)
	}

	observability.RecordImport(string(req.Strategy), "success", entry.Inserted, entry.Updated, entry.Ignored)

	s.log.WithFields(logrus.Fields{
		"file":     req.FileName,
		"user":     req.User,
		"strategy": req.Strategy,
		"inserted": entry.Inserted,
		"updated":  entry.Updated,
		"ignored":  entry.Ignored,
	}).Info("Imported contracts")

	return &entry, nil
}

// prepareBatch decodes, normalizes and validates rows. Rows are numbered from 1. A
// repeated id keeps the later row's values, and the earlier row is reported
// as ignored.
func (s *service) prepareBatch(req ImportRequest, today civil.Date) ([]contracts.Contract, []string) {
	origin := fmt.Sprintf("Importação %s %s", req.FileName, FormatDate(today))

	valid := make([]contracts.Contract, 0, len(req.Rows))
	rejected := make([]string, 0)
	seen := make(map[string]int, len(req.Rows))

	for i := range req.Rows {
		row := i + 1

		decoded, err := contracts.DecodeRow(req.Rows[i])
		if err != nil {
			rejected = append(rejected, fmt.Sprintf("linha %d: %v", row, err))

			continue
		}

		c := contracts.Normalize(decoded)

		if err = contracts.Validate(&c); err != nil {
			rejected = append(rejected, fmt.Sprintf("linha %d: %v", row, err))

			continue
		}

		if c.RegisteredAt == nil {
			registered := today
			c.RegisteredAt = &registered
		}

		if c.Origin == "" {
			c.Origin = origin
		}

		if prev, ok := seen[c.ID]; ok {
			rejected = append(rejected, fmt.Sprintf("linha %d: id %s repetido na linha %d", prev, c.ID, row))
		}

		seen[c.ID] = row
		valid = append(valid, c)
	}

	return valid, rejected
}

func (s *service) Imports(ctx context.Context, limit int) ([]store.ImportLog, error) {
	return s.store.ImportLogs(ctx, limit)
}

func (s *service) Terminate(ctx context.Context, id string) (*contracts.Contract, error) {
	c, err := s.store.SetStatus(ctx, id, contracts.StatusTerminated)
	if err != nil {
		return nil, err
	}

	s.log.WithField("contract", id).Info("Terminated contract")

	return c, nil
}

func (s *service) Evaluate(ctx context.Context) (*store.AlertSnapshot, error) {
	view, err := s.View(ctx)
	if err != nil {
		observability.RecordError("tracker", "evaluate")

		return nil, err
	}

	snapshot := store.AlertSnapshot{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Date:        view.Date,
		Params:      view.Params,
		Statistics:  view.Statistics,
		Alerts:      view.Alerts,
	}

	if err := s.store.SaveAlertSnapshot(ctx, snapshot); err != nil {
		observability.RecordError("tracker", "snapshot")

		return nil, fmt.Errorf("failed to save alert snapshot: %w", err)
	}

	observability.RecordStatistics(&snapshot.Statistics)
	observability.RecordAlerts(snapshot.Alerts, float64(snapshot.GeneratedAt.Unix()))

	s.log.WithFields(logrus.Fields{
		"date":    view.Date.String(),
		"alerts":  len(view.Alerts),
		"expired": view.Statistics.Expired,
	}).Info("Evaluated alerts")

	return &snapshot, nil
}

func (s *service) LatestEvaluation(ctx context.Context) (*store.AlertSnapshot, error) {
	return s.store.LatestAlertSnapshot(ctx)
}

func (s *service) Role(ctx context.Context, email string) (store.Role, error) {
	email = store.NormalizeEmail(email)
	if email == "" {
		return "", ErrEmailRequired
	}

	if email == store.NormalizeEmail(s.cfg.MasterAdminEmail) {
		return store.RoleAdmin, nil
	}

	user, err := s.store.GetUser(ctx, email)
	if errors.Is(err, store.ErrUserNotFound) {
		return store.RoleManager, nil
	}

	if err != nil {
		return "", err
	}

	return user.Role, nil
}

func (s *service) SetRole(ctx context.Context, email string, role store.Role) (*store.UserProfile, error) {
	email = store.NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	if _, err := store.ParseRole(string(role)); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, email)

	switch {
	case errors.Is(err, store.ErrUserNotFound):
		user = &store.UserProfile{
			ID:        uuid.NewString(),
			Email:     email,
			CreatedAt: time.Now().UTC(),
		}
	case err != nil:
		return nil, err
	}

	user.Role = role

	if err := s.store.SaveUser(ctx, *user); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"email": email, "role": role}).Info("Updated user role")

	return user, nil
}

func (s *service) Users(ctx context.Context) ([]store.UserProfile, error) {
	return s.store.ListUsers(ctx)
}

// FormatDate renders a date as dd/mm/yyyy
func FormatDate(d civil.Date) string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}
