package store

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/contrack/internal/testutil"
	"github.com/ethpandaops/contrack/pkg/contracts"
)

//nolint:gochecknoglobals // shared test reference date
var today = civil.Date{Year: 2026, Month: time.May, Day: 4}

func newTestStore(t *testing.T) (Store, context.Context) {
	t.Helper()

	mr, client := testutil.NewMiniredisClient(t)

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return New(log, client, testutil.RedisConfig(mr)), context.Background()
}

func contractIDs(in []contracts.Contract) []string {
	out := make([]string, 0, len(in))
	for i := range in {
		out = append(out, in[i].ID)
	}

	return out
}

func TestStore_ListEmpty(t *testing.T) {
	s, ctx := newTestStore(t)

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_ReplaceAll(t *testing.T) {
	s, ctx := newTestStore(t)

	res, err := s.ReplaceAll(ctx, testutil.SampleContracts(today))
	require.NoError(t, err)
	assert.Equal(t, WriteResult{Inserted: 5}, res)

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"CT-001", "CT-002", "CT-003", "CT-004", "CT-005"}, contractIDs(got))
	assert.Equal(t, testutil.SampleContracts(today)[1].Vendor, got[1].Vendor)
	assert.True(t, got[1].MonthlyValue.Equal(testutil.SampleContracts(today)[1].MonthlyValue))
	assert.Nil(t, got[3].EndDate)

	res, err = s.ReplaceAll(ctx, []contracts.Contract{testutil.NewContract("CT-900", today)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	got, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"CT-900"}, contractIDs(got))

	res, err = s.ReplaceAll(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)

	got, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_ReplaceAllDedupes(t *testing.T) {
	s, ctx := newTestStore(t)

	first := testutil.NewContract("CT-1", today, testutil.WithValue(1))
	other := testutil.NewContract("CT-2", today)
	last := testutil.NewContract("CT-1", today, testutil.WithValue(2))

	res, err := s.ReplaceAll(ctx, []contracts.Contract{first, other, last})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"CT-1", "CT-2"}, contractIDs(got))
	assert.Equal(t, "2", got[0].MonthlyValue.String())
}

func TestStore_Merge(t *testing.T) {
	s, ctx := newTestStore(t)

	_, err := s.ReplaceAll(ctx, testutil.SampleContracts(today)[:2])
	require.NoError(t, err)

	changed := testutil.NewContract("CT-002", today, testutil.WithValue(999))
	added := testutil.NewContract("CT-100", today)

	res, err := s.Merge(ctx, []contracts.Contract{added, changed})
	require.NoError(t, err)
	assert.Equal(t, WriteResult{Inserted: 1, Updated: 1}, res)

	got, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"CT-001", "CT-002", "CT-100"}, contractIDs(got))
	assert.Equal(t, "999", got[1].MonthlyValue.String())
}

func TestStore_MergeKeepsTermination(t *testing.T) {
	s, ctx := newTestStore(t)

	_, err := s.ReplaceAll(ctx, []contracts.Contract{testutil.NewContract("CT-1", today)})
	require.NoError(t, err)

	_, err = s.SetStatus(ctx, "CT-1", contracts.StatusTerminated)
	require.NoError(t, err)

	reimport := testutil.NewContract("CT-1", today, testutil.WithStatus(contracts.StatusActive), testutil.WithValue(5))
	_, err = s.Merge(ctx, []contracts.Contract{reimport})
	require.NoError(t, err)

	got, err := s.Get(ctx, "CT-1")
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusTerminated, got.Status)
	assert.Equal(t, "5", got.MonthlyValue.String())
}

func TestStore_MergeEmpty(t *testing.T) {
	s, ctx := newTestStore(t)

	res, err := s.Merge(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, WriteResult{}, res)
}

func TestStore_GetAndSetStatus(t *testing.T) {
	s, ctx := newTestStore(t)

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrContractNotFound)

	_, err = s.SetStatus(ctx, "missing", contracts.StatusTerminated)
	require.ErrorIs(t, err, ErrContractNotFound)

	_, err = s.ReplaceAll(ctx, testutil.SampleContracts(today))
	require.NoError(t, err)

	updated, err := s.SetStatus(ctx, "CT-001", contracts.StatusTerminated)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusTerminated, updated.Status)

	got, err := s.Get(ctx, "CT-001")
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusTerminated, got.Status)
}

func TestStore_CorruptRecord(t *testing.T) {
	mr, client := testutil.NewMiniredisClient(t)
	s := New(logrus.New(), client, testutil.RedisConfig(mr))
	ctx := context.Background()

	mr.HSet("test:contracts:data", "CT-X", "{not json")
	_, err := mr.RPush("test:contracts:index", "CT-X")
	require.NoError(t, err)

	_, err = s.List(ctx)
	require.ErrorIs(t, err, contracts.ErrInvalidContractData)

	var invalid *contracts.InvalidContractDataError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "CT-X", invalid.ID)
}

func TestStore_ImportLogs(t *testing.T) {
	s, ctx := newTestStore(t)

	for i := 0; i < MaxImportLogs+5; i++ {
		require.NoError(t, s.AppendImportLog(ctx, ImportLog{
			ID:       string(rune('a' + i%26)),
			Strategy: StrategyMerge,
			Inserted: i,
		}))
	}

	logs, err := s.ImportLogs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, logs, MaxImportLogs)
	assert.Equal(t, MaxImportLogs+4, logs[0].Inserted, "newest first")

	logs, err = s.ImportLogs(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

func TestStore_Params(t *testing.T) {
	s, ctx := newTestStore(t)

	_, found, err := s.Params(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	cfg := contracts.AlertConfig{Alert30Days: true, Alert180Days: true}
	require.NoError(t, s.SaveParams(ctx, cfg))

	got, found, err := s.Params(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, cfg, got)
}

func TestStore_Users(t *testing.T) {
	s, ctx := newTestStore(t)

	_, err := s.GetUser(ctx, "nobody@saude.sp.gov.br")
	require.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, s.SaveUser(ctx, UserProfile{ID: "2", Email: " Zeca@Saude.sp.gov.br ", Role: RoleManager}))
	require.NoError(t, s.SaveUser(ctx, UserProfile{ID: "1", Email: "ana@saude.sp.gov.br", Role: RoleAdmin}))

	u, err := s.GetUser(ctx, "ZECA@saude.sp.gov.br")
	require.NoError(t, err)
	assert.Equal(t, "zeca@saude.sp.gov.br", u.Email)
	assert.Equal(t, RoleManager, u.Role)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ana@saude.sp.gov.br", users[0].Email)
}

func TestStore_AlertSnapshot(t *testing.T) {
	s, ctx := newTestStore(t)

	snap, err := s.LatestAlertSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)

	in := AlertSnapshot{
		ID:     "snap-1",
		Date:   today,
		Params: contracts.DefaultAlertConfig(),
		Alerts: []contracts.AlertItem{{ID: contracts.AlertIDExpired, Type: contracts.SeverityCritical, Count: 2}},
	}
	require.NoError(t, s.SaveAlertSnapshot(ctx, in))

	snap, err = s.LatestAlertSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, today, snap.Date)
	assert.Equal(t, 2, snap.Alerts[0].Count)
}

func TestParseImportStrategy(t *testing.T) {
	for in, want := range map[string]ImportStrategy{
		"mesclar":      StrategyMerge,
		"MERGE":        StrategyMerge,
		"sobrescrever": StrategyOverwrite,
		" overwrite ":  StrategyOverwrite,
	} {
		got, err := ParseImportStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseImportStrategy("append")
	assert.ErrorIs(t, err, ErrInvalidStrategy)
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	_, err = ParseRole("root")
	assert.ErrorIs(t, err, ErrInvalidRole)
}
