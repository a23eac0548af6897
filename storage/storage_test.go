package storage

import (
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/arbor-audio/arbor-node/types"
)

func TestProjectCRUD(t *testing.T) {
	c := qt.New(t)
	st := New(metadb.NewTest(t))

	_, err := st.Project("missing")
	c.Assert(err, qt.ErrorIs, ErrNotFound)

	p, err := st.CreateProject(&types.Project{
		Name:      "summer jam",
		CreatedBy: "0xabc",
		BPM:       120,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(p.ID, qt.Not(qt.Equals), "")
	c.Assert(p.VotingGroupID, qt.Equals, uint64(1))
	c.Assert(p.Version, qt.Equals, uint64(0))
	c.Assert(p.Collaborators, qt.DeepEquals, []string{"0xabc"})

	got, err := st.Project(p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Name, qt.Equals, "summer jam")
	c.Assert(got.BPM, qt.Equals, 120)

	// duplicate name is rejected
	_, err = st.CreateProject(&types.Project{Name: "summer jam", CreatedBy: "0xdef"})
	c.Assert(err, qt.ErrorIs, ErrProjectNameTaken)

	// a second project gets the next voting group
	p2, err := st.CreateProject(&types.Project{Name: "winter jam", CreatedBy: "0xdef"})
	c.Assert(err, qt.IsNil)
	c.Assert(p2.VotingGroupID, qt.Equals, uint64(2))

	ids, err := st.ListProjects()
	c.Assert(err, qt.IsNil)
	c.Assert(ids, qt.HasLen, 2)
}

func TestUpdateProjectBumpsVersion(t *testing.T) {
	c := qt.New(t)
	st := New(metadb.NewTest(t))

	p, err := st.CreateProject(&types.Project{Name: "loops", CreatedBy: "0xabc"})
	c.Assert(err, qt.IsNil)

	updated, err := st.UpdateProject(p.ID, func(doc *types.Project) error {
		doc.Queue = append(doc.Queue, types.QueuedStem{
			Stem: types.Stem{ID: "stem-1", Name: "kick", Type: types.StemTypeDrums},
		})
		return nil
	})
	c.Assert(err, qt.IsNil)
	c.Assert(updated.Version, qt.Equals, uint64(1))
	c.Assert(updated.Queue, qt.HasLen, 1)

	// an update callback error leaves the document untouched
	_, err = st.UpdateProject(p.ID, func(doc *types.Project) error {
		doc.Queue = nil
		return fmt.Errorf("nope")
	})
	c.Assert(err, qt.ErrorMatches, "nope")

	got, err := st.Project(p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Version, qt.Equals, uint64(1))
	c.Assert(got.Queue, qt.HasLen, 1)
}

func TestReplaceProjectVersionConflict(t *testing.T) {
	c := qt.New(t)
	st := New(metadb.NewTest(t))

	p, err := st.CreateProject(&types.Project{Name: "conflicts", CreatedBy: "0xabc"})
	c.Assert(err, qt.IsNil)

	stale, err := st.Project(p.ID)
	c.Assert(err, qt.IsNil)

	// someone else bumps the document under us
	_, err = st.UpdateProject(p.ID, func(doc *types.Project) error {
		doc.Description = "first writer"
		return nil
	})
	c.Assert(err, qt.IsNil)

	stale.Description = "second writer"
	_, err = st.ReplaceProject(stale)
	c.Assert(err, qt.ErrorIs, ErrVersionConflict)

	fresh, err := st.Project(p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(fresh.Description, qt.Equals, "first writer")

	fresh.Description = "third writer"
	replaced, err := st.ReplaceProject(fresh)
	c.Assert(err, qt.IsNil)
	c.Assert(replaced.Version, qt.Equals, uint64(2))
}

func TestUserUpdate(t *testing.T) {
	c := qt.New(t)
	st := New(metadb.NewTest(t))

	_, err := st.User("0xAbC")
	c.Assert(err, qt.ErrorIs, ErrNotFound)

	// a missing user is created on first update, addresses are normalized
	u, err := st.UpdateUser("0xAbC", func(doc *types.User) error {
		doc.DisplayName = "alice"
		doc.RegisteredGroupIDs = append(doc.RegisteredGroupIDs, 7)
		return nil
	})
	c.Assert(err, qt.IsNil)
	c.Assert(u.Address, qt.Equals, "0xabc")
	c.Assert(u.Version, qt.Equals, uint64(1))
	c.Assert(u.IsRegistered(7), qt.IsTrue)
	c.Assert(u.IsRegistered(8), qt.IsFalse)

	got, err := st.User("0XABC")
	c.Assert(err, qt.IsNil)
	c.Assert(got.DisplayName, qt.Equals, "alice")
}

func TestStemCRUD(t *testing.T) {
	c := qt.New(t)
	st := New(metadb.NewTest(t))

	created, err := st.CreateStem(&types.Stem{
		Name:     "bassline",
		Type:     types.StemTypeBass,
		Filename: "bass.wav",
		Filesize: 1024,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(created.ID, qt.HasLen, 24)

	got, err := st.Stem(created.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Name, qt.Equals, "bassline")
	c.Assert(got.Type, qt.Equals, types.StemTypeBass)

	c.Assert(st.DeleteStem(created.ID), qt.IsNil)
	_, err = st.Stem(created.ID)
	c.Assert(err, qt.ErrorIs, ErrNotFound)

	// deleting twice is fine
	c.Assert(st.DeleteStem(created.ID), qt.IsNil)
}

func TestDeleteProject(t *testing.T) {
	c := qt.New(t)
	st := New(metadb.NewTest(t))

	p, err := st.CreateProject(&types.Project{Name: "one night stand", CreatedBy: "0xabc"})
	c.Assert(err, qt.IsNil)

	// the name is taken while the document exists
	_, err = st.CreateProject(&types.Project{Name: "one night stand", CreatedBy: "0xdef"})
	c.Assert(err, qt.ErrorIs, ErrProjectNameTaken)

	c.Assert(st.DeleteProject(p.ID), qt.IsNil)
	_, err = st.Project(p.ID)
	c.Assert(err, qt.ErrorIs, ErrNotFound)

	// deleting frees the name for reuse
	_, err = st.CreateProject(&types.Project{Name: "one night stand", CreatedBy: "0xdef"})
	c.Assert(err, qt.IsNil)

	c.Assert(st.DeleteProject("missing"), qt.ErrorIs, ErrNotFound)
}
