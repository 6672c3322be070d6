package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"nutrilog/internal/core"
	"nutrilog/internal/services"
)

func newMonthCmd(a *app) *cobra.Command {
	var shift int
	cmd := &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Show the calendar grid with daily calorie totals",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			month, err := parseMonth(arg, a.now())
			if err != nil {
				return err
			}
			view, err := a.svc.ShowMonth(cmd.Context(), month.AddDate(0, shift, 0))
			if err != nil {
				return err
			}
			renderMonth(cmd.OutOrStdout(), view)
			return nil
		},
	}
	cmd.Flags().IntVar(&shift, "shift", 0, "months to move from the selected month (negative for earlier)")
	return cmd
}

func newDayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "day [today|YYMMDD|YYYY-MM-DD]",
		Short: "List the records of one day",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := a.date
			if len(args) == 1 {
				raw = args[0]
			}
			key, err := parseDay(raw, a.now())
			if err != nil {
				return err
			}
			l, err := a.svc.Day(cmd.Context(), key)
			if err != nil {
				return err
			}
			renderDay(cmd.OutOrStdout(), key, l)
			return nil
		},
	}
}

var weekdayHeader = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// renderMonth prints two lines per week: day numbers with activity marks
// (W workout, C cardio) and the food total of each in-month day.
func renderMonth(w io.Writer, view services.MonthView) {
	fmt.Fprintf(w, "%s %d\n", view.Grid.Month, view.Grid.Year)
	for _, d := range weekdayHeader {
		fmt.Fprintf(w, "%-8s", d)
	}
	fmt.Fprintln(w)

	var total float64
	for i := 0; i+7 <= len(view.Days); i += 7 {
		week := view.Days[i : i+7]
		var days, totals strings.Builder
		for _, d := range week {
			if !view.Grid.InMonth(d.Key) {
				days.WriteString(strings.Repeat(" ", 8))
				totals.WriteString(strings.Repeat(" ", 8))
				continue
			}
			_, _, day, _ := d.Key.Decode()
			marks := ""
			if d.HasWorkout {
				marks += "W"
			}
			if d.HasCardio {
				marks += "C"
			}
			fmt.Fprintf(&days, "%-8s", strconv.Itoa(day)+marks)
			if d.Count > 0 {
				fmt.Fprintf(&totals, "%-8s", formatNumber(d.Total))
			} else {
				totals.WriteString(strings.Repeat(" ", 8))
			}
			total += d.Total
		}
		fmt.Fprintln(w, strings.TrimRight(days.String(), " "))
		fmt.Fprintln(w, strings.TrimRight(totals.String(), " "))
	}
	fmt.Fprintf(w, "Month total: %s kcal\n", formatNumber(total))
	if view.Stale {
		fmt.Fprintln(w, "(stale)")
	}
}

// renderDay prints the records of key with their positions.
func renderDay(w io.Writer, key core.DateKey, l core.DayLedger) {
	display, _ := key.DisplayLong()
	fmt.Fprintf(w, "%s (%s)\n", display, key)
	if len(l) == 0 {
		fmt.Fprintln(w, "No records.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, r := range l {
		done := "[ ]"
		if r.Done {
			done = "[x]"
		}
		detail := ""
		if r.Kind == core.KindFood {
			detail = formatFood(r)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, done, r.Kind, r.Name, detail)
	}
	tw.Flush()

	s := core.Summarize(l)
	fmt.Fprintf(w, "Total: %s kcal, %d pending\n", formatNumber(s.Total), s.Pending)
}

func formatFood(r core.Record) string {
	if r.Calories == nil {
		return "-"
	}
	qty := 1.0
	if r.Quantity != nil {
		qty = *r.Quantity
	}
	if qty == 1 {
		return formatNumber(*r.Calories) + " kcal"
	}
	return fmt.Sprintf("%s x %s = %s kcal", formatNumber(*r.Calories), formatNumber(qty), formatNumber(r.EffectiveCalories()))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
