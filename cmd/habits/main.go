package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"habits-go/internal/app"
	"habits-go/internal/config"
	"habits-go/internal/dates"
	"habits-go/internal/habits"
	"habits-go/internal/render"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withApp reads the config, opens a HabitsApp for the command being run and
// passes it to fn. The operation is logged as failed when fn returns an error.
func withApp(cmd *cobra.Command, args []string, fn func(*app.HabitsApp) error) error {
	defaults, err := app.GetDefaults()
	if err != nil {
		return fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	op := app.NewOperation(cmd.CommandPath(), args, time.Now())
	a, err := app.NewHabitsApp(cfg, op, verbose)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}

	runErr := fn(a)
	if runErr != nil {
		op.Fail()
	}
	if err := a.Close(); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

var rootCmd = &cobra.Command{
	Use:          "habits",
	Short:        "Track daily habits",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		noColor, _ := cmd.Flags().GetBool("no-color")
		render.ConfigureColor(os.Stdout, noColor)
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Fprintf(out(cmd), "Configuration initialized at %s\n", defaults["config_path"])
		fmt.Fprintf(out(cmd), "Host ID: %s\n", hostID)
		fmt.Fprintf(out(cmd), "Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		remote := cfg.Remote.Type
		if remote == "" {
			remote = "(none)"
		}
		fmt.Fprintf(out(cmd), "Configuration from %s:\n\n", defaults["config_path"])
		return render.KeyValues(out(cmd), [][2]string{
			{"Host ID", cfg.HostID},
			{"Base Dir", cfg.BaseDir},
			{"Log Dir", cfg.LogDir},
			{"Log Level", cfg.Log.Level},
			{"Store", cfg.Store.Type},
			{"Remote", remote},
		})
	},
}

// area command
var areaCmd = &cobra.Command{
	Use:   "area",
	Short: "Manage areas",
}

var areaAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add an area",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HabitsApp) error {
			ar, err := a.AddArea(strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Added area %s\n", ar.Name)
			return nil
		})
	},
}

var areaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List areas",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HabitsApp) error {
			return render.Areas(out(cmd), a.Snapshot())
		})
	},
}

var areaRenameCmd = &cobra.Command{
	Use:   "rename AREA NAME",
	Short: "Rename an area",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HabitsApp) error {
			name := strings.Join(args[1:], " ")
			if err := a.RenameArea(args[0], name); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Renamed %s to %s\n", args[0], name)
			return nil
		})
	},
}

var areaDeleteCmd = &cobra.Command{
	Use:   "delete AREA",
	Short: "Delete an area; its habits move to the first remaining area",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HabitsApp) error {
			if err := a.DeleteArea(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Deleted area %s\n", args[0])
			return nil
		})
	},
}

var areaReorderCmd = &cobra.Command{
	Use:   "reorder AREA...",
	Short: "Put the given areas first, in order",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HabitsApp) error {
			if err := a.ReorderAreas(args); err != nil {
				return err
			}
			return render.Areas(out(cmd), a.Snapshot())
		})
	},
}

// habit command
var habitCmd = &cobra.Command{
	Use:   "habit",
	Short: "Manage habits",
}

var habitAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a habit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := app.HabitInput{Name: strings.Join(args, " ")}
		in.Description, _ = cmd.Flags().GetString("description")
		in.Color, _ = cmd.Flags().GetString("color")
		in.Area, _ = cmd.Flags().GetString("area")
		if cmd.Flags().Changed("days") {
			raw, _ := cmd.Flags().GetString("days")
			days, err := dates.ParseWeekdays(raw)
			if err != nil {
				return err
			}
			in.Days = days
		}

		return withApp(cmd, args, func(a *app.HabitsApp) error {
			h, err := a.AddHabit(in)
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Added habit %s (%s)\n", h.Name, render.FormatDays(h.ActiveDays))
			return nil
		})
	},
}

var habitEditCmd = &cobra.Command{
	Use:   "edit HABIT",
	Short: "Edit a habit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var c app.HabitChanges
		flags := cmd.Flags()
		for name, dst := range map[string]**string{
			"name":        &c.Name,
			"description": &c.Description,
			"color":       &c.Color,
			"area":        &c.Area,
		} {
			if flags.Changed(name) {
				v, _ := flags.GetString(name)
				*dst = &v
			}
		}
		if flags.Changed("days") {
			raw, _ := flags.GetString("days")
			days, err := dates.ParseWeekdays(raw)
			if err != nil {
				return err
			}
			c.Days = days
		}

		return withApp(cmd, args, func(a *app.HabitsApp) error {
			h, err := a.EditHabit(args[0], c)
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Updated habit %s\n", h.Name)
			return nil
		})
	},
}

var habitDeleteCmd = &cobra.Command{
	Use:   "delete HABIT",
	Short: "Delete a habit and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HabitsApp) error {
			h, err := a.DeleteHabit(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Deleted habit %s\n", h.Name)
			return nil
		})
	},
}

var habitMoveCmd = &cobra.Command{
	Use:   "move HABIT AREA",
	Short: "Move a habit to an area",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		position, _ := cmd.Flags().GetInt("position")
		// 1-based on the command line; 0 means the end of the area.
		index := math.MaxInt
		if position > 0 {
			index = position - 1
		}

		return withApp(cmd, args, func(a *app.HabitsApp) error {
			if err := a.MoveHabit(args[0], args[1], index); err != nil {
				return err
			}
			return render.Habits(out(cmd), a.Snapshot())
		})
	},
}

var habitReorderCmd = &cobra.Command{
	Use:   "reorder AREA HABIT...",
	Short: "Put the given habits first in their area, in order",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HabitsApp) error {
			if err := a.ReorderHabits(args[0], args[1:]); err != nil {
				return err
			}
			return render.Habits(out(cmd), a.Snapshot())
		})
	},
}

var habitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List habits by area",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HabitsApp) error {
			return render.Habits(out(cmd), a.Snapshot())
		})
	},
}

// mark command
var markCmd = &cobra.Command{
	Use:   "mark HABIT [DATE]",
	Short: "Cycle a day's mark: done, failed, unmarked",
	Long: "Cycle a day's mark: done, failed, unmarked.\n" +
		"DATE is today (default), yesterday or YYYY-MM-DD.",
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rawDate string
		if len(args) > 1 {
			rawDate = args[1]
		}

		return withApp(cmd, args, func(a *app.HabitsApp) error {
			res, err := a.Mark(args[0], rawDate)
			if err != nil {
				return err
			}
			day := dates.FormatDisplay(res.Date)
			switch {
			case !res.Active:
				fmt.Fprintf(out(cmd), "%s is not scheduled on %s\n", res.Habit.Name, day)
			case !res.Marked:
				fmt.Fprintf(out(cmd), "%s  %s unmarked on %s\n", render.StatusMark(res.Status, false), res.Habit.Name, day)
			default:
				fmt.Fprintf(out(cmd), "%s  %s %s on %s\n", render.StatusMark(res.Status, true), res.Habit.Name, res.Status, day)
			}
			return nil
		})
	},
}

// today command
var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's habits",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HabitsApp) error {
			return render.Day(out(cmd), a.Snapshot(), a.Today())
		})
	},
}

// stats command
var statsCmd = &cobra.Command{
	Use:   "stats HABIT",
	Short: "Show a habit's streaks and completion rate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HabitsApp) error {
			h, ar, st, err := a.HabitStats(args[0])
			if err != nil {
				return err
			}
			return render.Stats(out(cmd), h, ar, st)
		})
	},
}

// calendar command
var calendarCmd = &cobra.Command{
	Use:   "calendar HABIT",
	Short: "Show a month or year calendar for a habit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _ := cmd.Flags().GetInt("year")
		month, _ := cmd.Flags().GetInt("month")
		if month < 0 || month > 12 {
			return fmt.Errorf("invalid month %d (expected 1-12)", month)
		}

		return withApp(cmd, args, func(a *app.HabitsApp) error {
			h, err := a.ResolveHabit(args[0])
			if err != nil {
				return err
			}
			today := a.Today()
			entries := a.Snapshot().EntriesFor(h.ID)

			if cmd.Flags().Changed("year") && month == 0 {
				return render.Year(out(cmd), h, entries, year, today)
			}
			ym := dates.YearMonth{Year: today.Year(), Month: today.Month()}
			if cmd.Flags().Changed("year") {
				ym.Year = year
			}
			if month != 0 {
				ym.Month = time.Month(month)
			}
			return render.Month(out(cmd), h, entries, ym, today)
		})
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Export all data as JSON (stdout by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HabitsApp) error {
			if len(args) == 0 || args[0] == "-" {
				return a.Export(out(cmd))
			}
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}
			if err := a.Export(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing export file: %w", err)
			}
			fmt.Fprintf(out(cmd), "Exported to %s\n", args[0])
			return nil
		})
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace all data with an exported JSON file (- for stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HabitsApp) error {
			if args[0] == "-" {
				return a.Import(cmd.InOrStdin(), "stdin")
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening import file: %w", err)
			}
			defer f.Close()

			if err := a.Import(f, args[0]); err != nil {
				return err
			}
			snap := a.Snapshot()
			fmt.Fprintf(out(cmd), "Imported %d habits, %d areas, %d entries\n",
				len(snap.Habits), len(snap.Areas), len(snap.Entries))
			return nil
		})
	},
}

// sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy data to and from the configured remote",
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload this host's data to the remote",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HabitsApp) error {
			version, err := a.Push()
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "Pushed version %d\n", version)
			return nil
		})
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull [HOST_ID]",
	Short: "Replace local data with the remote copy (this host by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var hostID string
		if len(args) > 0 {
			hostID = args[0]
		}
		return withApp(cmd, args, func(a *app.HabitsApp) error {
			if err := a.Pull(hostID); err != nil {
				if errors.Is(err, habits.ErrRemoteNotFound) {
					return fmt.Errorf("nothing has been pushed for this host yet: %w", err)
				}
				return err
			}
			fmt.Fprintln(out(cmd), "Pulled from remote")
			return nil
		})
	},
}

var syncCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the remote is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HabitsApp) error {
			if err := a.ValidateRemote(); err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), "Remote OK")
			return nil
		})
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store and remote status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, args, func(a *app.HabitsApp) error {
			st := a.Status()

			lastSaved := "never"
			if !st.Save.LastSaved.IsZero() {
				lastSaved = st.Save.LastSaved.Format("2006-01-02 15:04:05")
			}
			pairs := [][2]string{
				{"Host ID", st.HostID},
				{"Store", st.StoreType},
				{"Save State", string(st.Save.State)},
				{"Last Saved", lastSaved},
				{"Habits", strconv.Itoa(st.Habits)},
				{"Areas", strconv.Itoa(st.Areas)},
				{"Entries", strconv.Itoa(st.Entries)},
			}

			switch {
			case st.RemoteName == "" && st.RemoteType == "":
				pairs = append(pairs, [2]string{"Remote", "(none)"})
			case st.RemoteErr != nil:
				pairs = append(pairs, [2]string{"Remote", fmt.Sprintf("%s (%s): %v", st.RemoteName, st.RemoteType, st.RemoteErr)})
			default:
				version := "not pushed"
				if st.RemoteVersion > 0 {
					version = "version " + strconv.FormatInt(st.RemoteVersion, 10)
				}
				pairs = append(pairs, [2]string{"Remote", fmt.Sprintf("%s (%s), %s", st.RemoteName, st.RemoteType, version)})
			}
			return render.KeyValues(out(cmd), pairs)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Also log to stderr, at debug level")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// area subcommands
	areaCmd.AddCommand(areaAddCmd)
	areaCmd.AddCommand(areaListCmd)
	areaCmd.AddCommand(areaRenameCmd)
	areaCmd.AddCommand(areaDeleteCmd)
	areaCmd.AddCommand(areaReorderCmd)

	// habit subcommands
	habitCmd.AddCommand(habitAddCmd)
	habitAddCmd.Flags().StringP("description", "d", "", "Description")
	habitAddCmd.Flags().StringP("color", "c", "", "Color: palette name (green, blue, ...) or any CSS color")
	habitAddCmd.Flags().StringP("area", "a", "", "Area name or id (default: first area)")
	habitAddCmd.Flags().String("days", "all", "Active weekdays: mon,wed,fri | weekdays | weekends | all")

	habitCmd.AddCommand(habitEditCmd)
	habitEditCmd.Flags().String("name", "", "New name")
	habitEditCmd.Flags().StringP("description", "d", "", "Description")
	habitEditCmd.Flags().StringP("color", "c", "", "Color: palette name or any CSS color")
	habitEditCmd.Flags().StringP("area", "a", "", "Move to area (appended at the end)")
	habitEditCmd.Flags().String("days", "", "Active weekdays: mon,wed,fri | weekdays | weekends | all")

	habitCmd.AddCommand(habitDeleteCmd)
	habitCmd.AddCommand(habitMoveCmd)
	habitMoveCmd.Flags().IntP("position", "p", 0, "1-based position in the area (default: last)")
	habitCmd.AddCommand(habitReorderCmd)
	habitCmd.AddCommand(habitListCmd)

	// sync subcommands
	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncPullCmd)
	syncCmd.AddCommand(syncCheckCmd)

	calendarCmd.Flags().IntP("year", "y", 0, "Year (alone: show the whole year)")
	calendarCmd.Flags().IntP("month", "m", 0, "Month 1-12 (default: current month)")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(areaCmd)
	rootCmd.AddCommand(habitCmd)
	rootCmd.AddCommand(markCmd)
	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
}
