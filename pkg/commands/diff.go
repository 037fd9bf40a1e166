package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iota-uz/presence/modules/reconcile/domain/diff"
)

type diffRowOut struct {
	Source      string   `json:"source"`
	ExternalID  int64    `json:"external_id"`
	Name        string   `json:"name"`
	Email       string   `json:"email,omitempty"`
	Division    string   `json:"division,omitempty"`
	Department  string   `json:"department,omitempty"`
	ManagerName string   `json:"manager_name,omitempty"`
	HireDate    string   `json:"hire_date,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

type diffOut struct {
	Matched            []string     `json:"matched"`
	TrackerOnly        []diffRowOut `json:"tracker_only"`
	HROnly             []diffRowOut `json:"hr_only"`
	MissingFromTracker []string     `json:"missing_from_tracker"`
	MissingFromHR      []string     `json:"missing_from_hr"`
	TrackerError       string       `json:"tracker_error,omitempty"`
	HRError            string       `json:"hr_error,omitempty"`
}

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Report the reconciliation diff between upstreams and the roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.diff.Compute(a.ctx)
			if err != nil {
				return err
			}

			out := diffOut{
				Matched:      res.Matched,
				TrackerOnly:  toRows(res.TrackerOnly),
				HROnly:       toRows(res.HROnly),
				TrackerError: res.TrackerError,
				HRError:      res.HRError,
			}
			for _, e := range res.MissingFromTracker {
				out.MissingFromTracker = append(out.MissingFromTracker, e.Key())
			}
			for _, e := range res.MissingFromHR {
				out.MissingFromHR = append(out.MissingFromHR, e.Key())
			}

			data, _ := json.MarshalIndent(out, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func toRows(rows []diff.Row) []diffRowOut {
	out := make([]diffRowOut, 0, len(rows))
	for _, r := range rows {
		out = append(out, diffRowOut{
			Source:      string(r.Candidate.Raw.Source),
			ExternalID:  r.Candidate.Raw.ExternalID,
			Name:        r.Candidate.Raw.DisplayName,
			Email:       r.Candidate.Raw.Email,
			Division:    r.Candidate.Division,
			Department:  r.Candidate.Department,
			ManagerName: r.Candidate.ManagerName,
			HireDate:    r.Candidate.HireDate,
			Suggestions: r.Suggestions,
		})
	}
	return out
}
