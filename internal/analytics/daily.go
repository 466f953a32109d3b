package analytics

import (
	"sort"
	"time"

	"github.com/salesops/crm-dashboard/internal/domain"
)

type touchKey struct {
	entity      entityKey
	responsible string
}

// daily summarizes what happened on one local calendar day. Won and deposit
// deals are dated by their last modification, which is when the stage moved.
func (e *Engine) daily(idx *index, opts Options) domain.DailyReport {
	ref := idx.now
	if opts.Day != nil {
		ref = *opts.Day
	}
	on := func(t *time.Time) bool { return SameDay(t, ref, idx.loc) }

	r := domain.DailyReport{
		Date:         StartOfDay(ref, idx.loc).Format("2006-01-02"),
		ByUser:       []domain.DailyUserStats{},
		PendingItems: []domain.PendingActivity{},
	}
	users := make(map[string]*domain.DailyUserStats)
	user := func(id string) *domain.DailyUserStats {
		if id == "" || idx.dir.hiddenFromGroups(id) {
			return nil
		}
		u, ok := users[id]
		if !ok {
			u = &domain.DailyUserStats{UserID: id, Name: idx.dir.Name(id), PendingItems: []domain.PendingActivity{}}
			users[id] = u
		}
		return u
	}

	touched := make(map[touchKey]bool)
	for i := range idx.snap.Activities {
		a := &idx.snap.Activities[i]
		if !on(a.Created) {
			continue
		}
		r.ActivitiesCreated++
		touched[touchKey{entityKey{a.OwnerTypeID, a.OwnerID}, a.ResponsibleID}] = true
		if u := user(a.ResponsibleID); u != nil {
			u.Activities++
			switch a.TypeID {
			case domain.ActivityTypeCall:
				u.Calls++
			case domain.ActivityTypeEmail:
				u.Emails++
			case domain.ActivityTypeTask, domain.ActivityTypeSMS:
				u.Tasks++
			case domain.ActivityTypeMeeting:
				u.Meetings++
			}
		}
	}

	for i := range idx.snap.Leads {
		l := &idx.snap.Leads[i]
		if !on(l.DateCreated) {
			continue
		}
		r.LeadsCreated++
		if u := user(l.OwnerID); u != nil {
			u.LeadsCreated++
		}
	}

	dealTitles := make(map[string]string)
	dealsCreated := make(map[string]int)
	for _, dr := range idx.allCommercialDeals() {
		d := dr.deal
		dealTitles[d.ID] = d.DisplayTitle()
		if on(d.DateCreated) {
			r.DealsCreated++
			dealsCreated[d.OwnerID]++
		}
		if !on(d.DateModified) {
			continue
		}
		switch {
		case dr.stage.IsWon():
			r.Won++
			r.RevenueWon += d.Amount()
			if u := user(d.OwnerID); u != nil {
				u.Won++
				u.Revenue += d.Amount()
			}
		case dr.stage.IsDeposit():
			r.Deposit++
		}
	}

	for i := range idx.snap.Activities {
		a := &idx.snap.Activities[i]
		if !on(a.Deadline) {
			continue
		}
		done := a.Completed || touched[touchKey{entityKey{a.OwnerTypeID, a.OwnerID}, a.ResponsibleID}]
		r.Planned++
		u := user(a.ResponsibleID)
		if u != nil {
			u.Planned++
		}
		if done {
			r.Done++
			if u != nil {
				u.Done++
			}
			continue
		}

		item := pendingActivity(idx, a, dealTitles)
		r.Pending++
		r.PendingItems = append(r.PendingItems, item)
		if u != nil {
			u.Pending++
			u.PendingItems = append(u.PendingItems, item)
		}
	}

	sort.SliceStable(r.PendingItems, func(i, j int) bool {
		a, b := r.PendingItems[i], r.PendingItems[j]
		if a.ResponsibleName != b.ResponsibleName {
			return a.ResponsibleName < b.ResponsibleName
		}
		return a.ID < b.ID
	})

	for id, u := range users {
		u.DealsCreated = dealsCreated[id]
		r.ByUser = append(r.ByUser, *u)
	}
	sort.Slice(r.ByUser, func(i, j int) bool {
		a, b := r.ByUser[i], r.ByUser[j]
		if a.Activities != b.Activities {
			return a.Activities > b.Activities
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.UserID < b.UserID
	})
	return r
}

func pendingActivity(idx *index, a *domain.Activity, dealTitles map[string]string) domain.PendingActivity {
	title := UnknownOwner
	switch a.OwnerTypeID {
	case domain.OwnerTypeLead:
		if l, ok := idx.leadByID[a.OwnerID]; ok {
			title = l.DisplayTitle()
		}
	case domain.OwnerTypeDeal:
		if t, ok := dealTitles[a.OwnerID]; ok {
			title = t
		}
	}
	subject := a.Subject
	if subject == "" {
		subject = "No subject"
	}
	return domain.PendingActivity{
		ID:              a.ID,
		Subject:         subject,
		TypeID:          a.TypeID,
		OwnerTypeID:     a.OwnerTypeID,
		OwnerID:         a.OwnerID,
		EntityTitle:     title,
		ResponsibleID:   a.ResponsibleID,
		ResponsibleName: idx.dir.Name(a.ResponsibleID),
		Deadline:        a.Deadline,
	}
}
