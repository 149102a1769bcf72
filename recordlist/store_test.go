package recordlist

import (
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/fulldump/biff"
)

func newUsers() *Store {
	s, err := New(&Options{
		Fields: []string{"userName", "address"},
		NextID: AutoGenerator("u"),
	})
	if err != nil {
		panic(err)
	}
	return s
}

func TestNew(t *testing.T) {

	biff.Alternative("New", func(a *biff.A) {

		a.Alternative("Without fields", func(a *biff.A) {
			_, err := New(&Options{})
			biff.AssertTrue(errors.Is(err, ErrInvalidOptions))
		})

		a.Alternative("Nil options", func(a *biff.A) {
			_, err := New(nil)
			biff.AssertTrue(errors.Is(err, ErrInvalidOptions))
		})

		a.Alternative("Reserved field", func(a *biff.A) {
			_, err := New(&Options{Fields: []string{"id", "name"}})
			biff.AssertTrue(errors.Is(err, ErrInvalidOptions))
			biff.AssertEqual(err.Error(), "invalid options: field name 'id' is reserved")
		})

		a.Alternative("Duplicated field", func(a *biff.A) {
			_, err := New(&Options{Fields: []string{"name", "name"}})
			biff.AssertTrue(errors.Is(err, ErrInvalidOptions))
		})

		a.Alternative("Empty field name", func(a *biff.A) {
			_, err := New(&Options{Fields: []string{"name", ""}})
			biff.AssertTrue(errors.Is(err, ErrInvalidOptions))
		})

		a.Alternative("Default generator", func(a *biff.A) {
			s, err := New(&Options{Fields: []string{"name"}})
			biff.AssertNil(err)
			id, err := s.Create(Fields{"name": "Pablo"})
			biff.AssertNil(err)
			biff.AssertEqual(len(id), 36)
		})
	})
}

func TestStore(t *testing.T) {

	biff.Alternative("Store", func(a *biff.A) {

		s := newUsers()
		biff.AssertEqual(s.State(), StateIdle)
		biff.AssertEqual(s.List(), []Record{})

		a.Alternative("Create", func(a *biff.A) {
			id, err := s.Create(Fields{"userName": "Vishal", "address": "Patna"})
			biff.AssertNil(err)
			biff.AssertEqual(id, "u1")
			biff.AssertEqual(s.List(), []Record{
				{ID: "u1", Fields: Fields{"userName": "Vishal", "address": "Patna"}},
			})

			a.Alternative("Edit address", func(a *biff.A) {
				biff.AssertNil(s.BeginEdit("u1"))
				biff.AssertEqual(s.State(), StateEditing)
				biff.AssertNil(s.UpdateDraftField("address", "Delhi"))
				biff.AssertNil(s.CommitEdit())

				biff.AssertEqual(s.State(), StateIdle)
				biff.AssertEqual(s.List(), []Record{
					{ID: "u1", Fields: Fields{"userName": "Vishal", "address": "Delhi"}},
				})
			})

			a.Alternative("Begin edit fills the draft", func(a *biff.A) {
				biff.AssertNil(s.BeginEdit("u1"))

				id, editing := s.Editing()
				biff.AssertTrue(editing)
				biff.AssertEqual(id, "u1")

				draft, ok := s.Draft()
				biff.AssertTrue(ok)
				biff.AssertEqual(draft, Fields{"userName": "Vishal", "address": "Patna"})

				a.Alternative("Draft is a copy", func(a *biff.A) {
					draft["address"] = "Goa"
					again, _ := s.Draft()
					biff.AssertEqual(again["address"], "Patna")
				})
			})

			a.Alternative("Cancel edit", func(a *biff.A) {
				biff.AssertNil(s.BeginEdit("u1"))
				biff.AssertNil(s.UpdateDraftField("userName", "Rahul"))
				s.CancelEdit()

				biff.AssertEqual(s.State(), StateIdle)
				_, ok := s.Draft()
				biff.AssertFalse(ok)
				biff.AssertEqual(s.List(), []Record{
					{ID: "u1", Fields: Fields{"userName": "Vishal", "address": "Patna"}},
				})
			})

			a.Alternative("Begin edit on missing id", func(a *biff.A) {
				err := s.BeginEdit("nope")
				biff.AssertTrue(errors.Is(err, ErrNotFound))
				biff.AssertEqual(s.State(), StateIdle)
			})

			a.Alternative("Begin edit on missing id keeps current edit", func(a *biff.A) {
				biff.AssertNil(s.BeginEdit("u1"))
				biff.AssertNil(s.UpdateDraftField("address", "Delhi"))

				err := s.BeginEdit("nope")
				biff.AssertTrue(errors.Is(err, ErrNotFound))

				draft, _ := s.Draft()
				biff.AssertEqual(draft["address"], "Delhi")
			})

			a.Alternative("Unknown draft field", func(a *biff.A) {
				biff.AssertNil(s.BeginEdit("u1"))
				err := s.UpdateDraftField("email", "x@y.z")
				biff.AssertTrue(errors.Is(err, ErrUnknownField))

				draft, _ := s.Draft()
				biff.AssertEqual(draft, Fields{"userName": "Vishal", "address": "Patna"})
			})

			a.Alternative("Delete while editing", func(a *biff.A) {
				biff.AssertNil(s.BeginEdit("u1"))
				s.Delete("u1")
				biff.AssertEqual(s.State(), StateIdle)

				err := s.CommitEdit()
				biff.AssertTrue(errors.Is(err, ErrNotFound))
				biff.AssertEqual(s.State(), StateIdle)

				a.Alternative("Commit again", func(a *biff.A) {
					err := s.CommitEdit()
					biff.AssertTrue(errors.Is(err, ErrNoActiveEdit))
				})
			})

			a.Alternative("Delete twice", func(a *biff.A) {
				s.Delete("u1")
				s.Delete("u1")
				biff.AssertEqual(s.Len(), 0)
			})

			a.Alternative("Create with unknown field", func(a *biff.A) {
				_, err := s.Create(Fields{"userName": "Rahul", "email": "r@x.com"})
				biff.AssertTrue(errors.Is(err, ErrUnknownField))
				biff.AssertEqual(s.Len(), 1)
			})

			a.Alternative("Create with missing field", func(a *biff.A) {
				id, err := s.Create(Fields{"userName": "Rahul"})
				biff.AssertNil(err)
				record, err := s.Get(id)
				biff.AssertNil(err)
				biff.AssertEqual(record.Fields, Fields{"userName": "Rahul", "address": ""})
			})

			a.Alternative("Returned records are copies", func(a *biff.A) {
				list := s.List()
				list[0].Fields["address"] = "Mumbai"
				record, _ := s.Get("u1")
				biff.AssertEqual(record.Fields["address"], "Patna")
			})
		})

		a.Alternative("Delete keeps order", func(a *biff.A) {
			a1, _ := s.Create(Fields{"userName": "A", "address": "1"})
			b1, _ := s.Create(Fields{"userName": "B", "address": "2"})
			c1, _ := s.Create(Fields{"userName": "C", "address": "3"})

			s.Delete(a1)

			biff.AssertEqual(s.List(), []Record{
				{ID: b1, Fields: Fields{"userName": "B", "address": "2"}},
				{ID: c1, Fields: Fields{"userName": "C", "address": "3"}},
			})

			a.Alternative("Edit keeps position", func(a *biff.A) {
				biff.AssertNil(s.BeginEdit(b1))
				biff.AssertNil(s.UpdateDraftField("userName", "Bee"))
				biff.AssertNil(s.CommitEdit())

				list := s.List()
				biff.AssertEqual(list[0].ID, b1)
				biff.AssertEqual(list[0].Fields["userName"], "Bee")
				biff.AssertEqual(list[1].ID, c1)
			})

			a.Alternative("Ids are not reused", func(a *biff.A) {
				id, err := s.Create(Fields{"userName": "D"})
				biff.AssertNil(err)
				biff.AssertEqual(id, "u4")
			})
		})

		a.Alternative("Draft without edit", func(a *biff.A) {
			err := s.UpdateDraftField("address", "Delhi")
			biff.AssertTrue(errors.Is(err, ErrNoActiveEdit))
			biff.AssertEqual(s.Len(), 0)
		})

		a.Alternative("Commit without edit", func(a *biff.A) {
			err := s.CommitEdit()
			biff.AssertTrue(errors.Is(err, ErrNoActiveEdit))
		})

		a.Alternative("Cancel without edit", func(a *biff.A) {
			s.CancelEdit()
			biff.AssertEqual(s.State(), StateIdle)
		})

		a.Alternative("Delete missing id", func(a *biff.A) {
			s.Delete("nope")
			biff.AssertEqual(s.Len(), 0)
		})

		a.Alternative("Switching edit target discards the draft", func(a *biff.A) {
			a1, _ := s.Create(Fields{"userName": "A", "address": "1"})
			b1, _ := s.Create(Fields{"userName": "B", "address": "2"})

			biff.AssertNil(s.BeginEdit(a1))
			biff.AssertNil(s.UpdateDraftField("address", "changed"))
			biff.AssertNil(s.BeginEdit(b1))
			biff.AssertNil(s.CommitEdit())

			record, _ := s.Get(a1)
			biff.AssertEqual(record.Fields["address"], "1")
		})
	})
}

func TestStore_Insert(t *testing.T) {

	biff.Alternative("Insert", func(a *biff.A) {

		s := newUsers()
		err := s.Insert(Record{ID: "u1", Fields: Fields{"userName": "Vishal", "address": "Patna"}})
		biff.AssertNil(err)

		a.Alternative("Auto ids skip inserted ones", func(a *biff.A) {
			id, err := s.Create(Fields{"userName": "Rahul"})
			biff.AssertNil(err)
			biff.AssertEqual(id, "u2")
		})

		a.Alternative("Duplicated id", func(a *biff.A) {
			err := s.Insert(Record{ID: "u1"})
			biff.AssertTrue(errors.Is(err, ErrDuplicateID))
		})

		a.Alternative("Deleted id can not come back", func(a *biff.A) {
			s.Delete("u1")
			err := s.Insert(Record{ID: "u1"})
			biff.AssertTrue(errors.Is(err, ErrDuplicateID))
			biff.AssertEqual(s.Len(), 0)
		})

		a.Alternative("Empty id", func(a *biff.A) {
			err := s.Insert(Record{Fields: Fields{"userName": "x"}})
			biff.AssertTrue(errors.Is(err, ErrEmptyID))
		})

		a.Alternative("Unknown field", func(a *biff.A) {
			err := s.Insert(Record{ID: "x", Fields: Fields{"age": "3"}})
			biff.AssertTrue(errors.Is(err, ErrUnknownField))
			biff.AssertEqual(s.Len(), 1)
		})
	})
}

func TestStore_Reserve(t *testing.T) {

	s := newUsers()
	s.Reserve("u1", "u2", "")

	id, err := s.Create(Fields{"userName": "Vishal"})
	biff.AssertNil(err)
	biff.AssertEqual(id, "u3")

	err = s.Insert(Record{ID: "u2"})
	biff.AssertTrue(errors.Is(err, ErrDuplicateID))
	biff.AssertEqual(s.Len(), 1)
}

func TestStore_Subscribe(t *testing.T) {

	s := newUsers()
	changes := []Change{}
	unsubscribe := s.Subscribe(func(change Change) {
		changes = append(changes, change)
	})

	id, _ := s.Create(Fields{"userName": "Vishal", "address": "Patna"})
	s.BeginEdit(id)
	s.UpdateDraftField("address", "Delhi")
	s.CommitEdit()
	s.Delete(id)
	s.Delete(id)

	biff.AssertEqual(changes, []Change{
		{Kind: Created, Record: Record{ID: id, Fields: Fields{"userName": "Vishal", "address": "Patna"}}},
		{Kind: Updated, Record: Record{ID: id, Fields: Fields{"userName": "Vishal", "address": "Delhi"}}},
		{Kind: Deleted, Record: Record{ID: id, Fields: Fields{"userName": "Vishal", "address": "Delhi"}}},
	})

	unsubscribe()
	s.Create(Fields{"userName": "Rahul"})
	biff.AssertEqual(len(changes), 3)
}

func TestStore_ListenerMayCallStore(t *testing.T) {

	s := newUsers()
	lengths := []int{}
	s.Subscribe(func(change Change) {
		lengths = append(lengths, s.Len())
	})

	s.Create(Fields{"userName": "A"})
	s.Create(Fields{"userName": "B"})

	biff.AssertEqual(lengths, []int{1, 2})
}

func TestStore_Traverse(t *testing.T) {

	s := newUsers()
	s.Create(Fields{"userName": "A"})
	s.Create(Fields{"userName": "B"})
	s.Create(Fields{"userName": "C"})

	names := []string{}
	s.Traverse(func(record Record) bool {
		names = append(names, record.Fields["userName"])
		return len(names) < 2
	})

	biff.AssertEqual(names, []string{"A", "B"})
}

func TestStore_UniqueIds(t *testing.T) {

	s, _ := New(&Options{
		Fields: []string{"name"},
		NextID: UnixNanoGenerator(""),
	})

	ids := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id, err := s.Create(Fields{"name": "x"})
		biff.AssertNil(err)
		biff.AssertFalse(ids[id])
		ids[id] = true
	}
}

func TestStore_IDExhausted(t *testing.T) {

	s, _ := New(&Options{
		Fields: []string{"name"},
		NextID: func() string { return "always" },
	})

	_, err := s.Create(Fields{"name": "first"})
	biff.AssertNil(err)

	_, err = s.Create(Fields{"name": "second"})
	biff.AssertTrue(errors.Is(err, ErrIDExhausted))
	biff.AssertEqual(s.Len(), 1)
}

func TestStore_Create_Concurrency(t *testing.T) {

	s := newUsers()

	n := 100
	wg := &sync.WaitGroup{}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Create(Fields{"userName": "x"})
		}()
	}
	wg.Wait()

	biff.AssertEqual(s.Len(), n)

	ids := map[string]bool{}
	for _, record := range s.List() {
		ids[record.ID] = true
	}
	biff.AssertEqual(len(ids), n)
}

func TestStore_PanickingGenerator(t *testing.T) {

	calls := 0
	s, _ := New(&Options{
		Fields: []string{"name"},
		NextID: func() string {
			calls++
			if calls == 2 {
				panic("generator failed")
			}
			return strconv.Itoa(calls)
		},
	})

	_, err := s.Create(Fields{"name": "first"})
	biff.AssertNil(err)

	func() {
		defer func() {
			biff.AssertNotNil(recover())
		}()
		s.Create(Fields{"name": "second"})
	}()

	biff.AssertEqual(s.Len(), 1)

	id, err := s.Create(Fields{"name": "third"})
	biff.AssertNil(err)
	biff.AssertEqual(id, "3")
	biff.AssertEqual(len(s.List()), 2)
}
