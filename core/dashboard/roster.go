package dashboard

import (
	"context"
	"sort"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/optimistic"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/user"
)

// TutorRoster lists tutors per center.
type TutorRoster struct {
	view
	svc *user.Service

	center string
	tutors []user.User
}

// CenterGroup is the tutors of one center. Tutors without a center are grouped under "".
type CenterGroup struct {
	Center string      `json:"center"`
	Tutors []user.User `json:"tutors"`
}

func NewTutorRoster(svc *user.Service, ctrl *optimistic.Controller, logger core.Logger) *TutorRoster {
	tr := &TutorRoster{svc: svc}
	tr.init(ctrl, logger)
	return tr
}

// Load fetches the tutors of one center, or of all centers when center is empty.
func (tr *TutorRoster) Load(ctx context.Context, center string) error {
	var tutors []user.User
	fetch := func(ctx context.Context) (err error) {
		tutors, err = tr.svc.Tutors(ctx, center)
		return err
	}
	return tr.load(ctx, fetch, func() {
		tr.center = center
		tr.tutors = tutors
	})
}

func (tr *TutorRoster) reload(ctx context.Context) error {
	tr.mu.RLock()
	center := tr.center
	tr.mu.RUnlock()
	return tr.Load(ctx, center)
}

func (tr *TutorRoster) Tutors() []user.User {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return append([]user.User(nil), tr.tutors...)
}

// ByCenter groups the cached tutors by center, centers and tutors sorted by name.
func (tr *TutorRoster) ByCenter() []CenterGroup {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	groups := make(map[string][]user.User)
	for _, t := range tr.tutors {
		groups[t.Center] = append(groups[t.Center], t)
	}
	centers := make([]string, 0, len(groups))
	for c := range groups {
		centers = append(centers, c)
	}
	sort.Strings(centers)

	out := make([]CenterGroup, 0, len(centers))
	for _, c := range centers {
		tutors := groups[c]
		sort.SliceStable(tutors, func(i, j int) bool { return tutors[i].Name < tutors[j].Name })
		out = append(out, CenterGroup{Center: c, Tutors: tutors})
	}
	return out
}

func (tr *TutorRoster) tutorIndex(id string) int {
	return indexOf(len(tr.tutors), func(i int) bool { return tr.tutors[i].ID == id })
}

// update runs an optimistic change of one tutor; change is applied locally, remote persists it.
func (tr *TutorRoster) update(ctx context.Context, id, success string, change func(*user.User), remote func(ctx context.Context) (user.User, error)) optimistic.Outcome {
	var prev, stored user.User
	return tr.perform(ctx, optimistic.Mutation{
		Entity: "tutor",
		Key:    "user:" + id,
		Apply: func() {
			if i := tr.tutorIndex(id); i >= 0 {
				prev = tr.tutors[i]
				changed := prev
				change(&changed)
				tr.tutors[i] = changed
			}
		},
		Remote: func(ctx context.Context) (err error) {
			stored, err = remote(ctx)
			return err
		},
		Commit: func() {
			if i := tr.tutorIndex(id); i >= 0 {
				tr.tutors[i] = stored
			}
		},
		Revert: func() {
			if i := tr.tutorIndex(id); i >= 0 && prev.ID != "" {
				tr.tutors[i] = prev
			}
		},
		Success: success,
	}, tr.reload)
}

func (tr *TutorRoster) SetActive(ctx context.Context, id string, active bool) optimistic.Outcome {
	msg := "Tutor desactivado"
	if active {
		msg = "Tutor activado"
	}
	return tr.update(ctx, id, msg,
		func(u *user.User) { u.IsActive = active },
		func(ctx context.Context) (user.User, error) { return tr.svc.SetActive(ctx, id, active) },
	)
}

func (tr *TutorRoster) AssignCenter(ctx context.Context, id, center string) optimistic.Outcome {
	center = core.CleanString(center)
	return tr.update(ctx, id, "Centro asignado",
		func(u *user.User) { u.Center = center },
		func(ctx context.Context) (user.User, error) { return tr.svc.AssignCenter(ctx, id, center) },
	)
}
