package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lkmltools/git2mbox/imap"
)

var uploadOpts imap.Options

// UploadCmd pushes an exported mbox into an IMAP folder.
var UploadCmd = &cobra.Command{
	Use:   "upload [mbox file]",
	Short: "Append the messages of an exported mbox to an IMAP folder",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mboxPath := "mbox"
		if len(args) == 1 {
			mboxPath = args[0]
		}

		if uploadOpts.Password == "" {
			uploadOpts.Password = os.Getenv("IMAP_PASS")
		}
		if !uploadOpts.DryRun && uploadOpts.Password == "" {
			return fmt.Errorf("IMAP password must be provided via --imap-pass or IMAP_PASS env var")
		}

		logger := defaultLogger()
		uploaded, err := imap.Upload(cmd.Context(), uploadOpts, mboxPath, logger)
		if err != nil {
			return fmt.Errorf("uploaded %d messages before failing: %w", uploaded, err)
		}

		if uploadOpts.DryRun {
			fmt.Printf("Dry run: %d messages would be uploaded to %q\n", uploaded, uploadOpts.TargetFolder)
		} else {
			fmt.Printf("Uploaded %d messages to %q\n", uploaded, uploadOpts.TargetFolder)
		}
		return nil
	},
}

func init() {
	flags := UploadCmd.Flags()
	flags.StringVar(&uploadOpts.Host, "imap-host", "", "IMAP server hostname")
	flags.IntVar(&uploadOpts.Port, "imap-port", 993, "IMAP server port")
	flags.StringVar(&uploadOpts.Username, "imap-user", "", "IMAP username")
	flags.StringVar(&uploadOpts.Password, "imap-pass", "", "IMAP password (falls back to IMAP_PASS env var)")
	flags.BoolVar(&uploadOpts.UseTLS, "use-tls", true, "Use TLS for the IMAP connection")
	flags.BoolVar(&uploadOpts.InsecureSkipVerify, "insecure-skip-verify", false, "Skip TLS certificate verification (not recommended)")
	flags.StringVar(&uploadOpts.TargetFolder, "target-folder", "INBOX", "Target IMAP folder")
	flags.BoolVar(&uploadOpts.DryRun, "dry-run", false, "Count messages without uploading")

	_ = UploadCmd.MarkFlagRequired("imap-host")
	_ = UploadCmd.MarkFlagRequired("imap-user")
}
