package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Browse OneDrive",
}

var driveLsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List the contents of a OneDrive folder",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDriveLs,
}

var driveGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Download a file to the current directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runDriveGet,
}

var driveGetOutput string

func runDriveLs(cmd *cobra.Command, args []string) error {
	account, err := loadAccount()
	if err != nil {
		return err
	}
	storage := account.Storage("")

	itemID := ""
	if len(args) > 0 {
		item, err := storage.ItemByPath(cmd.Context(), "", args[0])
		if err != nil {
			return err
		}
		itemID = item.ID
	}

	for item, err := range storage.Children("", itemID, nil).All(cmd.Context()) {
		if err != nil {
			return err
		}
		if item.IsFolder() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s/\n", "-", item.Name)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-12d %s\n", item.Size, item.Name)
	}
	return nil
}

func runDriveGet(cmd *cobra.Command, args []string) error {
	account, err := loadAccount()
	if err != nil {
		return err
	}
	storage := account.Storage("")

	item, err := storage.ItemByPath(cmd.Context(), "", args[0])
	if err != nil {
		return err
	}

	body, err := storage.Download(cmd.Context(), "", item.ID)
	if err != nil {
		return err
	}
	defer body.Close()

	target := driveGetOutput
	if target == "" {
		target = item.Name
	}
	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	defer file.Close()

	written, err := io.Copy(file, body)
	if err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s (%d bytes)\n", target, written)
	return nil
}

func init() {
	driveGetCmd.Flags().StringVarP(&driveGetOutput, "output", "o", "", "output file name")
	driveCmd.AddCommand(driveLsCmd, driveGetCmd)
	rootCmd.AddCommand(driveCmd)
}
