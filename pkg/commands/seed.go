package commands

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/iota-uz/presence/modules/roster/domain/aggregates/entry"
)

type seedEntry struct {
	name      string
	email     string
	division  string
	direction string
	unit      string
	team      string
	location  string
	planStart string
}

var seedEntries = []seedEntry{
	{"Anna Kovalenko", "anna.kovalenko@corp.example", "IT", "Engineering", "Platform", "Core Services", "Kyiv", "09:00"},
	{"Ivan Petrenko", "ivan.petrenko@corp.example", "IT", "Engineering", "Platform", "Core Services", "Kyiv", "09:00"},
	{"Olha Sydorenko", "olha.sydorenko@corp.example", "Operations", "Service Delivery", "Support", "Tier 1", "Lviv", "08:00"},
	{"Serhii Melnyk", "serhii.melnyk@corp.example", "Commercial", "Sales", "Enterprise", "EMEA", "Kyiv", "24/7"},
	{"Kateryna Boiko", "kateryna.boiko@corp.example", "Finance", "Accounting", "Payroll", "Payroll", "Kyiv", "09:30"},
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the roster with a small sample dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			for _, s := range seedEntries {
				e := entry.New(a.tenantID, s.name, s.email)
				e, _ = entry.Merge(e, entry.Patch{
					Division:  entry.Ptr(s.division),
					Direction: entry.Ptr(s.direction),
					Unit:      entry.Ptr(s.unit),
					Team:      entry.Ptr(s.team),
					Location:  entry.Ptr(s.location),
					PlanStart: entry.Ptr(s.planStart),
				})
				if _, err := a.roster.Create(a.ctx, e); err != nil {
					if errors.Is(err, entry.ErrKeyTaken) {
						continue
					}
					return err
				}
				a.log.WithField("key", e.Key()).Info("seeded roster entry")
			}
			return nil
		},
	}
}
