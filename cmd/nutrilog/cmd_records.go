package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"nutrilog/internal/core"
	"nutrilog/internal/ledger"
)

func newAddCmd(a *app) *cobra.Command {
	var calories, quantity string
	var done bool
	cmd := &cobra.Command{
		Use:   "add KIND NAME...",
		Short: "Append a food, workout or cardio record to the day",
		Example: `  nutrilog add food Oatmeal --cal 150 --qty 1,5
  nutrilog add workout Squats --done -d yesterday`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseDay(a.date, a.now())
			if err != nil {
				return err
			}
			kind, err := core.ParseKind(args[0])
			if err != nil {
				return fmt.Errorf("%w: %w", core.ErrInvalidRecord, err)
			}
			rec := core.Record{Kind: kind, Name: strings.Join(args[1:], " "), Done: done}
			if kind == core.KindFood {
				if rec.Calories, err = optionalNumber("cal", calories); err != nil {
					return err
				}
				if rec.Quantity, err = optionalNumber("qty", quantity); err != nil {
					return err
				}
			}
			l, err := a.svc.Add(cmd.Context(), key, rec)
			if err != nil {
				return err
			}
			renderDay(cmd.OutOrStdout(), key, l)
			return nil
		},
	}
	cmd.Flags().StringVar(&calories, "cal", "", "calories per unit (food only)")
	cmd.Flags().StringVar(&quantity, "qty", "", "quantity, defaults to 1 (food only)")
	cmd.Flags().BoolVar(&done, "done", false, "mark as eaten or completed")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var name, kind, calories, quantity string
	cmd := &cobra.Command{
		Use:   "edit INDEX",
		Short: "Change fields of the record at INDEX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, index, err := a.target(args[0])
			if err != nil {
				return err
			}
			current, err := a.svc.Day(cmd.Context(), key)
			if err != nil {
				return err
			}
			if index < 0 || index >= len(current) {
				return &ledger.IndexError{Key: key, Index: index, Len: len(current)}
			}

			rec := current[index]
			flags := cmd.Flags()
			if flags.Changed("kind") {
				if rec.Kind, err = core.ParseKind(kind); err != nil {
					return fmt.Errorf("%w: %w", core.ErrInvalidRecord, err)
				}
			}
			if flags.Changed("name") {
				rec.Name = name
			}
			if flags.Changed("cal") {
				if rec.Calories, err = optionalNumber("cal", calories); err != nil {
					return err
				}
			}
			if flags.Changed("qty") {
				if rec.Quantity, err = optionalNumber("qty", quantity); err != nil {
					return err
				}
			}

			// Write back by ID so a record that moved or vanished since the
			// read is not overwritten at its old position. Records stored
			// before IDs existed can only be addressed by index.
			var l core.DayLedger
			if rec.ID != "" {
				l, err = a.svc.EditByID(cmd.Context(), key, rec.ID, rec)
			} else {
				l, err = a.svc.Edit(cmd.Context(), key, index, rec)
			}
			if err != nil {
				return err
			}
			renderDay(cmd.OutOrStdout(), key, l)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&kind, "kind", "", "new kind (food, workout, cardio)")
	cmd.Flags().StringVar(&calories, "cal", "", "calories per unit, empty to clear")
	cmd.Flags().StringVar(&quantity, "qty", "", "quantity, empty for 1")
	return cmd
}

func newToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle INDEX",
		Short: "Flip the eaten/completed flag of the record at INDEX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, index, err := a.target(args[0])
			if err != nil {
				return err
			}
			l, err := a.svc.Toggle(cmd.Context(), key, index)
			if err != nil {
				return err
			}
			renderDay(cmd.OutOrStdout(), key, l)
			return nil
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:     "rm [INDEX]",
		Aliases: []string{"remove"},
		Short:   "Delete the record at INDEX, or the one matching --id",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if id != "" {
				if len(args) != 0 {
					return fmt.Errorf("give either INDEX or --id, not both")
				}
				key, err := parseDay(a.date, a.now())
				if err != nil {
					return err
				}
				l, err := a.svc.RemoveByID(cmd.Context(), key, id)
				if err != nil {
					return err
				}
				renderDay(cmd.OutOrStdout(), key, l)
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("missing INDEX")
			}
			key, index, err := a.target(args[0])
			if err != nil {
				return err
			}
			l, err := a.svc.Remove(cmd.Context(), key, index)
			if err != nil {
				return err
			}
			renderDay(cmd.OutOrStdout(), key, l)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "record id instead of a position")
	return cmd
}

// target resolves the --date flag and an INDEX argument.
func (a *app) target(rawIndex string) (core.DateKey, int, error) {
	key, err := parseDay(a.date, a.now())
	if err != nil {
		return "", 0, err
	}
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		return "", 0, fmt.Errorf("index %q is not a number", rawIndex)
	}
	return key, index, nil
}

// optionalNumber parses a numeric flag. An empty value means unset.
func optionalNumber(flag, raw string) (*float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := core.ParseNumber(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: --%s %q", core.ErrInvalidRecord, flag, raw)
	}
	if v < 0 {
		return nil, fmt.Errorf("%w: --%s must not be negative", core.ErrInvalidRecord, flag)
	}
	return &v, nil
}
