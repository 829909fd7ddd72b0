package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/readstyle/dbopen"
	"github.com/hazyhaar/readstyle/prefs"
	"github.com/hazyhaar/readstyle/resolve"
)

type failingKV struct {
	getErr, setErr error
	data           map[string][]byte
}

func (f *failingKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *failingKV) Set(_ context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.data == nil {
		f.data = map[string][]byte{}
	}
	f.data[key] = value
	return nil
}

func (f *failingKV) Close() error { return nil }

func backends(t *testing.T) map[string]KV {
	t.Helper()
	sq, err := NewSQLite(dbopen.OpenMemory(t))
	require.NoError(t, err)

	out := map[string]KV{
		"memory": NewMemory(),
		"sqlite": sq,
	}
	if addr := os.Getenv("READSTYLE_REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		prefix := "readstyle-test:" + t.Name() + ":"
		t.Cleanup(func() {
			ctx := context.Background()
			keys, _ := client.Keys(ctx, prefix+"*").Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
			client.Close()
		})
		out["redis"] = NewRedis(client, prefix)
	}
	return out
}

func TestKV_Contract(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := kv.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Set(ctx, "k", []byte(`{"a":1}`)))
			v, ok, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.JSONEq(t, `{"a":1}`, string(v))

			require.NoError(t, kv.Set(ctx, "k", []byte(`[]`)))
			v, _, _ = kv.Get(ctx, "k")
			assert.Equal(t, `[]`, string(v))

			b, ok := kv.(Batcher)
			require.True(t, ok)
			require.NoError(t, b.SetMany(ctx, map[string][]byte{"x": []byte(`1`), "y": []byte(`2`)}))
			v, _, _ = kv.Get(ctx, "y")
			assert.Equal(t, `2`, string(v))
		})
	}
}

func TestMemory_Closed(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Close())
	_, _, err := m.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Set(context.Background(), "k", nil), ErrClosed)
}

func TestOpenSQLite_File(t *testing.T) {
	path := t.TempDir() + "/sub/readstyle.db"
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, prefs.KeySiteExceptions, []byte(`["a.com"]`)))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	p := NewPrefs(s, nil)
	assert.Equal(t, []string{"a.com"}, p.SiteExceptions(ctx))
}

func TestPrefs_Defaults(t *testing.T) {
	ctx := context.Background()
	p := NewPrefs(NewMemory(), nil)

	assert.Equal(t, prefs.DefaultProfiles(), p.Profiles(ctx))
	assert.Equal(t, prefs.DefaultProfile, p.ActiveProfile(ctx))
	assert.Equal(t, []string{}, p.SiteExceptions(ctx))
	assert.Equal(t, map[string]string{}, p.SiteProfiles(ctx))
}

func TestPrefs_FailuresYieldDefaults(t *testing.T) {
	ctx := context.Background()
	p := NewPrefs(&failingKV{getErr: errors.New("disk on fire")}, nil)
	assert.Equal(t, prefs.DefaultProfiles(), p.Profiles(ctx))
	assert.Equal(t, prefs.DefaultProfile, p.ActiveProfile(ctx))
	assert.Empty(t, p.SiteExceptions(ctx))
	assert.Empty(t, p.SiteProfiles(ctx))

	garbage := &failingKV{data: map[string][]byte{
		prefs.KeyProfiles:       []byte(`{not json`),
		prefs.KeySiteExceptions: []byte(`null`),
	}}
	p = NewPrefs(garbage, nil)
	assert.Equal(t, prefs.DefaultProfiles(), p.Profiles(ctx))
	assert.Equal(t, []string{}, p.SiteExceptions(ctx))

	p = NewPrefs(&failingKV{setErr: errors.New("read-only")}, nil)
	assert.Error(t, p.SetSiteExceptions(ctx, []string{"a.com"}))
}

func TestPrefs_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			p := NewPrefs(kv, nil)
			require.NoError(t, p.SetProfiles(ctx, []prefs.Profile{prefs.DefaultProfile, prefs.NightProfile}))
			require.NoError(t, p.SetActiveProfile(ctx, prefs.NightProfile))
			require.NoError(t, p.SetSiteExceptions(ctx, []string{"a.com"}))
			require.NoError(t, p.SetSiteProfiles(ctx, map[string]string{"b.com": "Night Reading", "d.com": "Ghost"}))

			snap := p.Snapshot(ctx)
			assert.Equal(t, []string{"a.com"}, snap.Exceptions)
			assert.Equal(t, "Night Reading", snap.Active.Name)
			assert.Len(t, snap.Profiles, 2)
			assert.Equal(t, "Ghost", snap.SiteProfiles["d.com"])

			assert.Nil(t, snap.Resolve("https://a.com/"))
			d := snap.Decide("https://b.com/")
			assert.Equal(t, resolve.TierSite, d.Tier)
			assert.Equal(t, prefs.NightProfile.Settings, *d.Settings)
			d = snap.Decide("https://d.com/")
			assert.Equal(t, resolve.TierActive, d.Tier)
			assert.True(t, d.Stale)
		})
	}
}

func TestPrefs_SaveStateWritesChangedKeys(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	p := NewPrefs(mem, nil)
	require.NoError(t, p.Reset(ctx))

	prev := p.State(ctx)
	next, err := prefs.AddException(prev, "a.com")
	require.NoError(t, err)

	keys, err := p.SaveState(ctx, prev, next)
	require.NoError(t, err)
	assert.Equal(t, []string{prefs.KeySiteExceptions}, keys)
	assert.Equal(t, []string{"a.com"}, p.SiteExceptions(ctx))

	keys, err = p.SaveState(ctx, next, next)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestPrefs_SaveStateWithoutBatcher(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{}
	p := NewPrefs(kv, nil)

	next := prefs.DefaultState()
	keys, err := p.SaveState(ctx, prefs.State{}, next)
	require.NoError(t, err)
	assert.Len(t, keys, 4)
	assert.Equal(t, prefs.DefaultProfiles(), p.Profiles(ctx))
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := NewPrefs(NewMemory(), nil)
	require.NoError(t, src.Reset(ctx))
	require.NoError(t, src.SetSiteExceptions(ctx, []string{"a.com"}))
	require.NoError(t, src.SetSiteProfiles(ctx, map[string]string{"b.com": "Night Reading"}))

	data, err := src.Export(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"profiles\": [")

	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &keys))
	assert.Len(t, keys, 4)
	for _, k := range []string{"profiles", "activeProfile", "siteExceptions", "siteProfiles"} {
		assert.Contains(t, keys, k)
	}

	dst := NewPrefs(NewMemory(), nil)
	require.True(t, dst.Import(ctx, data))
	assert.Equal(t, src.State(ctx), dst.State(ctx))
}

func TestImport_PartialAndNull(t *testing.T) {
	ctx := context.Background()
	p := NewPrefs(NewMemory(), nil)
	require.NoError(t, p.Reset(ctx))
	require.NoError(t, p.SetSiteExceptions(ctx, []string{"keep.com"}))

	ok := p.Import(ctx, []byte(`{"siteProfiles": {"x.com": "Default"}, "siteExceptions": null}`))
	require.True(t, ok)
	assert.Equal(t, []string{"keep.com"}, p.SiteExceptions(ctx))
	assert.Equal(t, map[string]string{"x.com": "Default"}, p.SiteProfiles(ctx))
	assert.Equal(t, prefs.DefaultProfiles(), p.Profiles(ctx))

	ok = p.Import(ctx, []byte(`{"siteExceptions": []}`))
	require.True(t, ok)
	assert.Equal(t, []string{}, p.SiteExceptions(ctx))
}

func TestImport_Rejects(t *testing.T) {
	ctx := context.Background()
	p := NewPrefs(NewMemory(), nil)
	require.NoError(t, p.Reset(ctx))
	before := p.State(ctx)

	for _, in := range []string{
		`{not json`,
		`[1,2]`,
		`{"profiles": "nope"}`,
		`{"profiles": [{"settings": {}}]}`,
		`{"siteProfiles": {"a.com": 3}}`,
		`{"activeProfile": {"name": "X", "settings": {"fontSize": "big"}}}`,
	} {
		assert.False(t, p.Import(ctx, []byte(in)), in)
	}
	assert.Equal(t, before, p.State(ctx))
}

func TestImport_WriteFailure(t *testing.T) {
	p := NewPrefs(&failingKV{setErr: errors.New("read-only")}, nil)
	assert.False(t, p.Import(context.Background(), []byte(`{"siteExceptions": ["a.com"]}`)))
}

func TestEnsureSeeded(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	p := NewPrefs(mem, nil)

	seeded, err := p.EnsureSeeded(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)
	assert.Equal(t, prefs.DefaultState(), p.State(ctx))

	require.NoError(t, p.SetSiteExceptions(ctx, []string{"a.com"}))
	seeded, err = p.EnsureSeeded(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Equal(t, []string{"a.com"}, p.SiteExceptions(ctx))

	require.NoError(t, p.SetProfiles(ctx, []prefs.Profile{}))
	seeded, err = p.EnsureSeeded(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)
	assert.Empty(t, p.SiteExceptions(ctx))
}
