package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func urlSets() *Record {
	return rec(
		"web", rec("dev", "https://dev.web", "uat", "https://uat.web", "prod", list("https://a.web", "https://b.web")),
	)
}

func baseDoc(components, tenants *Record) *Record {
	return rec(
		URLSetsKey, urlSets(),
		DocComponentsKey, components,
		DocTenantsKey, tenants,
	)
}

func mustLoad(t *testing.T, doc *Record) *Facts {
	t.Helper()
	f, err := Load(doc)
	require.NoError(t, err)
	return f
}

func tenant(meta *Record, components *Record) *Record {
	r := rec()
	if meta != nil {
		r.Set(MetaKey, meta)
	}
	r.Set(ComponentsKey, components)
	return r
}

func TestLoadRequiresTopLevelKeys(t *testing.T) {
	for _, key := range []string{URLSetsKey, DocComponentsKey, DocTenantsKey} {
		t.Run("missing "+key, func(t *testing.T) {
			doc := baseDoc(rec("svc", rec()), rec("acme", tenant(nil, rec())))
			doc.Delete(key)

			_, err := Load(doc)
			require.ErrorIs(t, err, ErrInvalidDocument)
			assert.Contains(t, err.Error(), key)
		})

		t.Run("empty "+key, func(t *testing.T) {
			doc := baseDoc(rec("svc", rec()), rec("acme", tenant(nil, rec())))
			doc.Set(key, rec())

			_, err := Load(doc)
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})

		t.Run("non-mapping "+key, func(t *testing.T) {
			doc := baseDoc(rec("svc", rec()), rec("acme", tenant(nil, rec())))
			doc.Set(key, list("x"))

			_, err := Load(doc)
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}

	t.Run("nil document", func(t *testing.T) {
		_, err := Load(nil)
		assert.ErrorIs(t, err, ErrInvalidDocument)
	})
}

func TestLoadDoesNotModifyDocument(t *testing.T) {
	doc := baseDoc(
		rec("svc", rec("from", "base"), "base", rec()),
		rec("child", tenant(rec("from", "parent"), rec("svc", rec("from", "parent"))),
			"parent", tenant(nil, rec("svc", nil))),
	)
	before, err := doc.MarshalJSON()
	require.NoError(t, err)

	mustLoad(t, doc)

	after, err := doc.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestLoadTypesProperties(t *testing.T) {
	f := mustLoad(t, baseDoc(
		rec("svc", rec("servers", "web", "jenkins", "https://ci/svc", "name", "Service")),
		rec("acme", tenant(nil, rec("svc", rec("urls", rec("dev", "d", "uat", "u", "prod", "p"))))),
	))

	svc := f.ComponentByID("svc")
	require.NotNil(t, svc)
	props, err := svc.AccumulatedProperties("name")
	require.NoError(t, err)

	p, ok := props.First("servers")
	require.True(t, ok)
	set, ok := p.Value.URLSet()
	require.True(t, ok)
	assert.Equal(t, []string{"https://a.web", "https://b.web"}, set.Prod)

	p, ok = props.First("jenkins")
	require.True(t, ok)
	assert.Equal(t, ValueLink, p.Value.Kind())

	acmeSvc := f.ComponentByID("acme_svc")
	require.NotNil(t, acmeSvc)
	props, err = acmeSvc.AccumulatedProperties("servers", "urls")
	require.NoError(t, err)
	p, _ = props.First("urls")
	assert.Equal(t, "acme_svc", p.Origin)
	p, _ = props.First("servers")
	assert.Equal(t, "svc", p.Origin)
}

func TestLoadUnknownURLSet(t *testing.T) {
	_, err := Load(baseDoc(
		rec("svc", rec("servers", "nope")),
		rec("acme", tenant(nil, rec())),
	))
	assert.ErrorIs(t, err, ErrUnknownURLSet)
	assert.ErrorIs(t, err, ErrReference)
}

func TestURLSetRegistry(t *testing.T) {
	doc := baseDoc(rec("svc", rec()), rec("acme", tenant(nil, rec())))
	doc.Set(URLSetsKey, rec(
		"web", rec("dev", "d", "uat", "u", "prod", "p"),
		"broken", rec("dev", "x"),
	))
	f := mustLoad(t, doc)

	first, err := f.URLSet("web")
	require.NoError(t, err)
	second, err := f.URLSet("web")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = f.URLSet("broken")
	assert.ErrorIs(t, err, ErrInvalidURLSet)

	_, err = f.URLSet("missing")
	assert.ErrorIs(t, err, ErrUnknownURLSet)

	assert.Equal(t, []string{"web", "broken"}, f.URLSetNames())
}

func TestTenantInheritance(t *testing.T) {
	f := mustLoad(t, baseDoc(
		rec("svc", rec()),
		rec(
			"child", tenant(rec("from", "parent", "hiera", "child/hiera"), rec()),
			"parent", tenant(rec("hiera", "parent/hiera", "redmine", "https://redmine/p"), rec()),
		),
	))

	child := f.Tenant("child")
	require.NotNil(t, child)
	parent := child.Parent()
	require.NotNil(t, parent)
	assert.Equal(t, "parent", parent.ID())
	assert.Nil(t, parent.Parent())
	assert.Equal(t, []*Tenant{child}, parent.Children())

	props, err := child.AccumulatedProperties("hiera", "redmine")
	require.NoError(t, err)
	assert.Equal(t, []string{"child/hiera", "parent/hiera"}, values(props.Get("hiera")))

	assert.Nil(t, f.Tenant("missing"))
}

func TestTenantRejectsMetaPointerAtConstruction(t *testing.T) {
	_, err := NewTenant(nil, "acme", rec(MetaKey, rec("from", "other")))
	assert.ErrorIs(t, err, ErrInheritanceKey)
}

func TestTenantFlatLayout(t *testing.T) {
	f := mustLoad(t, baseDoc(
		rec("svc", rec()),
		rec("acme", rec(MetaKey, rec("name", "ACME"), "svc", rec("owner", "ops"), "db", nil)),
	))

	acme := f.Tenant("acme")
	require.NotNil(t, acme)
	assert.Equal(t, []string{"svc", "db"}, acme.ComponentNames())
	assert.Equal(t, "ACME", acme.HumanName())

	svc, ok := acme.Component("svc")
	require.True(t, ok)
	assert.Equal(t, "acme_svc", svc.ID())
	assert.Same(t, f.ComponentByID("svc"), svc.Parent())

	db, ok := acme.Component("db")
	require.True(t, ok)
	assert.True(t, db.Parent().IsRoot(), "tenant-private component hangs off the root")
}

func TestTenantOverrideFollowsTenantHierarchy(t *testing.T) {
	f := mustLoad(t, baseDoc(
		rec("svc", rec("name", "Service")),
		rec(
			"T2", tenant(rec("from", "T1"), rec("svc", rec("owner", "t2"))),
			"T1", tenant(nil, rec("svc", rec("owner", "t1"))),
		),
	))

	t1svc := f.ComponentByID("T1_svc")
	t2svc := f.ComponentByID("T2_svc")
	require.NotNil(t, t1svc)
	require.NotNil(t, t2svc)

	assert.Same(t, t1svc, t2svc.Parent())
	assert.Same(t, f.ComponentByID("svc"), t1svc.Parent())

	props, err := t2svc.AccumulatedProperties("name")
	require.NoError(t, err)
	assert.Equal(t, []string{"t2", "t1"}, values(props.Get("owner")))
	assert.Equal(t, "Service", t2svc.HumanName())
}

func TestLazyCrossTenantReference(t *testing.T) {
	t.Run("attaches under the resolved component", func(t *testing.T) {
		f := mustLoad(t, baseDoc(
			rec("svc", rec()),
			rec(
				"T1", tenant(nil, rec("svc", rec("owner", "t1"))),
				"T2", tenant(nil, rec("svc", rec("from", "T1"))),
			),
		))
		assert.Same(t, f.ComponentByID("T1_svc"), f.ComponentByID("T2_svc").Parent())
	})

	t.Run("resolves a raw entry in place once", func(t *testing.T) {
		f := mustLoad(t, baseDoc(
			rec("svc", rec()),
			rec(
				"T2", tenant(nil, rec("svc", rec("from", "T1"))),
				"T1", tenant(nil, rec("svc", rec("owner", "t1"))),
			),
		))
		t1svc := f.ComponentByID("T1_svc")
		require.NotNil(t, t1svc)
		assert.Equal(t, "T1", t1svc.Origin())
		assert.Same(t, f.ComponentByID("svc"), t1svc.Parent())
		assert.Same(t, t1svc, f.ComponentByID("T2_svc").Parent())
		assert.Len(t, f.Components("svc"), 3)
	})

	t.Run("climbs to an ancestor of the named tenant", func(t *testing.T) {
		f := mustLoad(t, baseDoc(
			rec("svc", rec()),
			rec(
				"root", tenant(nil, rec("svc", nil)),
				"mid", tenant(rec("from", "root"), rec()),
				"other", tenant(nil, rec("svc", rec("from", "mid"))),
			),
		))
		assert.Same(t, f.ComponentByID("root_svc"), f.ComponentByID("other_svc").Parent())
	})

	t.Run("chained lazy resolution fails", func(t *testing.T) {
		_, err := Load(baseDoc(
			rec("svc", rec()),
			rec(
				"T2", tenant(nil, rec("svc", rec("from", "T1"))),
				"T1", tenant(nil, rec("svc", rec("from", "T0"))),
				"T0", tenant(nil, rec("svc", nil)),
			),
		))
		assert.ErrorIs(t, err, ErrLazyChain)
	})

	t.Run("in-place resolution follows the tenant hierarchy", func(t *testing.T) {
		pointer := func() *Record { return tenant(nil, rec("svc", rec("from", "Bc"))) }
		parent := func() *Record { return tenant(nil, rec("svc", rec("owner", "b"))) }
		child := func() *Record { return tenant(rec("from", "B"), rec("svc", rec("owner", "bc"))) }

		orders := map[string]*Record{
			"pointer first": rec("A", pointer(), "B", parent(), "Bc", child()),
			"pointer last":  rec("B", parent(), "Bc", child(), "A", pointer()),
		}
		for name, tenants := range orders {
			t.Run(name, func(t *testing.T) {
				f := mustLoad(t, baseDoc(rec("svc", rec()), tenants))
				bsvc := f.ComponentByID("B_svc")
				bcsvc := f.ComponentByID("Bc_svc")
				require.NotNil(t, bsvc)
				require.NotNil(t, bcsvc)
				assert.Same(t, f.ComponentByID("svc"), bsvc.Parent())
				assert.Same(t, bsvc, bcsvc.Parent())
				assert.Same(t, bcsvc, f.ComponentByID("A_svc").Parent())
			})
		}
	})

	t.Run("raw parent entry with a pointer is a chain", func(t *testing.T) {
		_, err := Load(baseDoc(
			rec("svc", rec()),
			rec(
				"A", tenant(nil, rec("svc", rec("from", "Bc"))),
				"B", tenant(nil, rec("svc", rec("from", "X"))),
				"Bc", tenant(rec("from", "B"), rec("svc", nil)),
				"X", tenant(nil, rec("svc", nil)),
			),
		))
		assert.ErrorIs(t, err, ErrLazyChain)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		_, err := Load(baseDoc(
			rec("svc", rec()),
			rec("T2", tenant(nil, rec("svc", rec("from", "T9")))),
		))
		assert.ErrorIs(t, err, ErrUnknownTenant)
	})

	t.Run("component missing in named tenant chain", func(t *testing.T) {
		_, err := Load(baseDoc(
			rec("svc", rec()),
			rec(
				"T1", tenant(nil, rec("db", nil)),
				"T2", tenant(nil, rec("svc", rec("from", "T1"))),
			),
		))
		assert.ErrorIs(t, err, ErrUnknownComponent)
	})

	t.Run("pointer to own tenant", func(t *testing.T) {
		_, err := Load(baseDoc(
			rec("svc", rec()),
			rec("T1", tenant(nil, rec("svc", rec("from", "T1")))),
		))
		assert.ErrorIs(t, err, ErrReference)
	})
}

func TestComponentQueries(t *testing.T) {
	f := mustLoad(t, baseDoc(
		rec("svc", rec("name", "Service"), "db", rec("name", "Database")),
		rec(
			"corp", tenant(nil, rec("svc", nil, "db", nil)),
			"team", tenant(rec("from", "corp"), rec("svc", rec("owner", "team"))),
			"lone", tenant(nil, rec("cache", nil)),
		),
	))

	t.Run("all components shadow by name", func(t *testing.T) {
		refs := f.Tenant("team").AllComponents()
		require.Len(t, refs, 2)
		assert.Equal(t, "team_svc", refs[0].Component.ID())
		assert.Equal(t, "team", refs[0].Owner.ID())
		assert.Equal(t, "corp_db", refs[1].Component.ID())
		assert.Equal(t, "corp", refs[1].Owner.ID())
	})

	t.Run("components by name in pre-order", func(t *testing.T) {
		var ids []string
		for _, n := range f.Components("svc") {
			ids = append(ids, n.ID())
		}
		assert.Equal(t, []string{"svc", "corp_svc", "team_svc"}, ids)
		assert.Empty(t, f.Components("missing"))
	})

	t.Run("reverse index", func(t *testing.T) {
		var ids []string
		for _, tn := range f.ComponentRefs("db") {
			ids = append(ids, tn.ID())
		}
		assert.Equal(t, []string{"corp", "team"}, ids)
		assert.Empty(t, f.ComponentRefs("missing"))
	})

	t.Run("tenants in pre-order", func(t *testing.T) {
		var ids []string
		for _, tn := range f.Tenants() {
			ids = append(ids, tn.ID())
		}
		assert.Equal(t, []string{"corp", "team", "lone"}, ids)
	})
}
