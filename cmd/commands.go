package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zachdehooge/sos-dashboard/internal/apperror"
	"github.com/Zachdehooge/sos-dashboard/internal/generator"
	"github.com/Zachdehooge/sos-dashboard/internal/report"
	"github.com/Zachdehooge/sos-dashboard/internal/validate"
)

// addSubmitCmds adds the reporter-side 'submit' and 'submit-legacy' commands.
func addSubmitCmds(rootCmd *cobra.Command, opts *rootOptions) {
	var form validate.SOSForm
	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Send an SOS with coordinates",
		Example: `  sos-dashboard submit --type Flood --lat 14.5995 --lng 120.9842 \
    --details "Water rising, two adults on roof" --mobile "+63 912 345 6789"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := validate.SOS(form)
			if err != nil {
				return err
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			ack, err := a.client.SubmitReport(cmd.Context(), payload)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ack.Message)
			return nil
		},
	}
	submitCmd.Flags().StringVar(&form.DisasterType, "type", "", "Disaster type (Flood, Fire, Earthquake, ...)")
	submitCmd.Flags().StringVar(&form.Latitude, "lat", "", "Latitude in degrees, -90 to 90")
	submitCmd.Flags().StringVar(&form.Longitude, "lng", "", "Longitude in degrees, -180 to 180")
	submitCmd.Flags().StringVar(&form.Details, "details", "", "What is happening")
	submitCmd.Flags().StringVar(&form.MobileNumber, "mobile", "", "Contact number")
	_ = submitCmd.MarkFlagRequired("type")

	var name, location, message string
	legacyCmd := &cobra.Command{
		Use:        "submit-legacy",
		Short:      "Send an SOS through the old name/location/message form",
		Deprecated: "use 'submit' with coordinates",
		Args:       cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := validate.LegacySOS(name, location, message)
			if err != nil {
				return err
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			ack, err := a.client.SubmitLegacyReport(cmd.Context(), payload)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ack.Message)
			return nil
		},
	}
	legacyCmd.Flags().StringVar(&name, "name", "", "Reporter name")
	legacyCmd.Flags().StringVar(&location, "location", "", "Free-text location")
	legacyCmd.Flags().StringVar(&message, "message", "", "What is happening")

	rootCmd.AddCommand(submitCmd, legacyCmd)
}

// addSessionCmds adds 'login', 'logout' and 'session'.
func addSessionCmds(rootCmd *cobra.Command, opts *rootOptions) {
	var username, password string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as an operator and remember the session",
		Long: `Log in as an operator. The session cookie is saved to SOS_SESSION_FILE
so later commands are authorized. The password may also come from
SOS_PASSWORD to keep it out of shell history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("SOS_PASSWORD")
			}
			creds, err := validate.Credentials(username, password)
			if err != nil {
				return err
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			res, err := a.client.Login(cmd.Context(), creds)
			if err != nil {
				// Rejected credentials are not a missing session: report the server's message.
				return fmt.Errorf("login failed: %s", apperror.Message(err))
			}
			if !res.LoggedIn {
				return fmt.Errorf("login failed: %s", res.Message)
			}
			if err := a.store.Save(a.client); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	loginCmd.Flags().StringVarP(&username, "username", "u", os.Getenv("SOS_USERNAME"), "Operator username")
	loginCmd.Flags().StringVarP(&password, "password", "p", "", "Operator password")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "End the operator session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			if err := a.client.Logout(cmd.Context()); err != nil {
				a.log.WithError(err).Warn("logout request failed")
			}
			if err := a.store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}

	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Show whether the saved session is still logged in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			loggedIn, err := a.client.CheckSession(cmd.Context())
			if err != nil {
				return err
			}
			if !loggedIn {
				fmt.Fprintln(cmd.OutOrStdout(), loginHint)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s\n", a.cfg.APIBaseURL)
			return nil
		},
	}

	rootCmd.AddCommand(loginCmd, logoutCmd, sessionCmd)
}

// addReportCmds adds 'list' and 'status'.
func addReportCmds(rootCmd *cobra.Command, opts *rootOptions) {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List open SOS reports by lane",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			return printBoard(cmd, a)
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a report to a new status",
		Long: `Move a report to a new status. Allowed moves:
  Pending      -> Under Review, False Alarm
  Under Review -> Resolved, False Alarm
Resolved and False Alarm are final.`,
		Example: `  sos-dashboard status 7 "Under Review"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, err := report.ParseStatus(args[1])
			if err != nil {
				return err
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			ack, err := a.client.UpdateReportStatus(cmd.Context(), id, status)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ack.Message)
			fmt.Fprintln(cmd.OutOrStdout())
			return printBoard(cmd, a)
		},
	}

	rootCmd.AddCommand(listCmd, statusCmd)
}

func printBoard(cmd *cobra.Command, a *app) error {
	reports, err := a.client.ListReports(cmd.Context())
	if err != nil {
		return err
	}
	return generator.WriteText(cmd.OutOrStdout(), generator.RenderReports(reports))
}

// addAnnouncementCmds adds 'announcements', 'announce' and 'announcement edit|delete'.
func addAnnouncementCmds(rootCmd *cobra.Command, opts *rootOptions) {
	listCmd := &cobra.Command{
		Use:   "announcements",
		Short: "Show the latest announcements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			return printAnnouncements(cmd, a)
		},
	}

	announceCmd := &cobra.Command{
		Use:   "announce <content>",
		Short: "Broadcast an announcement",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := validate.Announcement(strings.Join(args, " "))
			if err != nil {
				return err
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			ack, err := a.client.CreateAnnouncement(cmd.Context(), content)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ack.Message)
			return printAnnouncements(cmd, a)
		},
	}

	announcementCmd := &cobra.Command{
		Use:   "announcement",
		Short: "Edit or delete an announcement",
	}
	editCmd := &cobra.Command{
		Use:   "edit <id> <content>",
		Short: "Replace an announcement's text",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			content, err := validate.Announcement(strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			ack, err := a.client.UpdateAnnouncement(cmd.Context(), id, content)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ack.Message)
			return printAnnouncements(cmd, a)
		},
	}
	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an announcement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			ack, err := a.client.DeleteAnnouncement(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ack.Message)
			return printAnnouncements(cmd, a)
		},
	}
	announcementCmd.AddCommand(editCmd, deleteCmd)

	rootCmd.AddCommand(listCmd, announceCmd, announcementCmd)
}

func printAnnouncements(cmd *cobra.Command, a *app) error {
	list, err := a.client.ListAnnouncements(cmd.Context())
	if err != nil {
		_ = generator.WriteAnnouncementsText(cmd.OutOrStdout(), generator.RenderAnnouncementsUnavailable())
		return err
	}
	return generator.WriteAnnouncementsText(cmd.OutOrStdout(), generator.RenderAnnouncements(list))
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
