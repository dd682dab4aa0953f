package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spigell/prodanswer/internal/document"
	"github.com/spigell/prodanswer/internal/logger"
	"github.com/spigell/prodanswer/internal/prodanswer"
	"github.com/spigell/prodanswer/internal/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	defaultPreviewLines = 5
	pollInterval        = 2 * time.Second
)

var requirementsCmd = &cobra.Command{
	Use:     "requirements",
	Aliases: []string{"requirement", "req"},
	Short:   "Manage customer requirements",
}

var requirementsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List requirements",
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, _ []string) error {
		q := listQuery(cmd)
		if status, _ := cmd.Flags().GetString("status"); status != "" {
			q.Set("status", status)
		}

		if err := a.matching.FetchRequirements(ctx, q); err != nil {
			return err
		}
		return renderRequirements(a, a.matching.Requirements())
	}),
}

var requirementsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a requirement with its items",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, _ *cobra.Command, a *application, args []string) error {
		if err := a.matching.FetchRequirement(ctx, args[0]); err != nil {
			return err
		}
		return renderRequirement(a, a.matching.Current())
	}),
}

var requirementsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a text requirement, prompting for fields not given as flags",
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, _ []string) error {
		return createRequirement(ctx, cmd, a)
	}),
}

var requirementsUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload an Excel, CSV or Word document with requirements",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		return uploadRequirement(ctx, cmd, a, args[0])
	}),
}

var requirementsParseCmd = &cobra.Command{
	Use:   "parse [text]",
	Short: "Split free text into requirement items on the backend",
	Args:  cobra.MaximumNArgs(1),
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		text := strings.Join(args, " ")
		if file, _ := cmd.Flags().GetString("file"); file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading requirement text: %w", err)
			}
			text = string(data)
		}

		createdBy, _ := cmd.Flags().GetString("created-by")
		title, _ := cmd.Flags().GetString("title")

		requirement, err := a.client.ParseRequirementText(ctx, text, createdBy, title)
		if err != nil {
			return err
		}
		return renderRequirement(a, requirement)
	}),
}

var requirementsItemsCmd = &cobra.Command{
	Use:   "items <id>",
	Short: "List parsed items of a requirement",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, _ *cobra.Command, a *application, args []string) error {
		items, err := a.client.GetRequirementItems(ctx, args[0])
		if err != nil {
			return err
		}

		t := newTable(fmt.Sprintf("Items: %d", items.TotalItems), "#", "ID", "TEXT")
		for _, item := range items.Items {
			t.add(itoa(item.ItemOrder), item.ID, item.ItemText)
		}
		return a.out.render(items, t)
	}),
}

var requirementsProcessCmd = &cobra.Command{
	Use:   "process <id>",
	Short: "Generate embeddings for the requirement items",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		result, err := a.matching.ProcessRequirement(ctx, args[0])
		if err != nil {
			return err
		}
		a.logger.Info("requirement processing", zap.String("status", result.Status), zap.String("message", result.Message))

		if wait, _ := cmd.Flags().GetBool("wait"); wait {
			if err := waitProcessed(ctx, a, args[0]); err != nil {
				return err
			}
		}
		return renderRequirement(a, a.matching.Current())
	}),
}

var requirementsFormatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "Show file formats accepted for upload",
	Run: withApp(func(ctx context.Context, _ *cobra.Command, a *application, _ []string) error {
		formats, err := a.client.SupportedFormats(ctx)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(formats.Formats))
		for name := range formats.Formats {
			names = append(names, name)
		}
		sort.Strings(names)

		t := newTable("Max file size: "+formats.MaxFileSize, "FORMAT", "EXTENSIONS", "DESCRIPTION")
		for _, name := range names {
			f := formats.Formats[name]
			t.add(name, strings.Join(f.Extensions, " "), f.Description)
		}

		local := newTable("Checked locally before upload", "EXTENSIONS")
		local.add(strings.Join(document.SupportedExtensions(), " "))

		return a.out.render(formats, t, local)
	}),
}

func init() {
	rootCmd.AddCommand(requirementsCmd)
	requirementsCmd.AddCommand(
		requirementsListCmd,
		requirementsGetCmd,
		requirementsCreateCmd,
		requirementsUploadCmd,
		requirementsParseCmd,
		requirementsItemsCmd,
		requirementsProcessCmd,
		requirementsFormatsCmd,
	)

	addListFlags(requirementsListCmd)
	requirementsListCmd.Flags().String("status", "", "pending, processing, completed or failed")

	for _, c := range []*cobra.Command{requirementsCreateCmd, requirementsUploadCmd, requirementsParseCmd} {
		c.Flags().String("title", "", "requirement title")
		c.Flags().String("created-by", "", "author of the requirement")
	}
	requirementsCreateCmd.Flags().String("text", "", "requirement text")
	requirementsParseCmd.Flags().StringP("file", "f", "", "read the text from a file")

	requirementsUploadCmd.Flags().Int("preview", defaultPreviewLines, "preview that many requirement lines before uploading, 0 disables")
	requirementsUploadCmd.Flags().Bool("process", false, "process the uploaded requirement and wait for it")
	addYesFlag(requirementsUploadCmd)

	requirementsProcessCmd.Flags().Bool("wait", false, "wait until the backend finishes processing")
}

func createRequirement(ctx context.Context, cmd *cobra.Command, a *application) error {
	in := prodanswer.RequirementInput{}

	var err error
	in.Title, _ = cmd.Flags().GetString("title")
	in.CreatedBy, _ = cmd.Flags().GetString("created-by")
	in.RequirementText, _ = cmd.Flags().GetString("text")

	if in.Title == "" {
		if in.Title, err = ask("Title", "", false); err != nil {
			return err
		}
	}
	if strings.TrimSpace(in.RequirementText) == "" {
		if in.RequirementText, err = ask("Requirement text", "", true); err != nil {
			return err
		}
	}

	requirement, err := a.matching.CreateTextRequirement(ctx, in)
	if err != nil {
		return err
	}
	a.logger.Info("requirement created", zap.String(logger.FieldRequirement, requirement.ID))
	return renderRequirement(a, requirement)
}

func uploadRequirement(ctx context.Context, cmd *cobra.Command, a *application, path string) error {
	file, err := document.Preflight(path)
	if err != nil {
		return err
	}

	log := a.logger.With(
		zap.String("file", file.Name),
		zap.String("mime", file.MIME),
		zap.String("size", file.HumanSize()),
	)

	if n, _ := cmd.Flags().GetInt("preview"); n > 0 {
		lines, err := document.Preview(file, n)
		switch {
		case errors.Is(err, document.ErrPreviewUnsupported):
			log.Debug("no local preview", zap.String("format", file.Format.Description))
		case err != nil:
			return err
		default:
			t := newTable("Preview of "+file.Name, "#", "REQUIREMENT")
			for i, line := range lines {
				t.add(itoa(i+1), line)
			}
			if a.out.format == outputTable {
				if err := a.out.render(nil, t); err != nil {
					return err
				}
			}
			if err := confirm("Upload "+file.Name+"?", approved(cmd)); err != nil {
				return err
			}
		}
	}

	reader, err := file.Open()
	if err != nil {
		return err
	}
	defer reader.Close()

	title, _ := cmd.Flags().GetString("title")
	createdBy, _ := cmd.Flags().GetString("created-by")

	log.Info("uploading requirement document")
	requirement, err := a.matching.UploadRequirement(ctx, &prodanswer.Upload{
		Name:        file.Name,
		ContentType: file.ContentType(),
		Reader:      reader,
	}, createdBy, title)
	if err != nil {
		return err
	}

	if process, _ := cmd.Flags().GetBool("process"); process && requirement.ID != "" {
		if _, err := a.matching.ProcessRequirement(ctx, requirement.ID); err != nil {
			return err
		}
		if err := waitProcessed(ctx, a, requirement.ID); err != nil {
			return err
		}
		requirement = a.matching.Current()
	}

	return renderRequirement(a, requirement)
}

// waitProcessed polls the requirement until the backend reports it done.
func waitProcessed(ctx context.Context, a *application, id string) error {
	for {
		if err := a.matching.FetchRequirement(ctx, id); err != nil {
			return err
		}

		current := a.matching.Current()
		if current.Done() {
			if current.Status == prodanswer.RequirementFailed {
				return fmt.Errorf("processing requirement %s failed", id)
			}
			return nil
		}

		a.logger.Debug("waiting for requirement", zap.String(logger.FieldRequirement, id), zap.String("status", current.Status))
		if err := utils.WaitFor(ctx, pollInterval); err != nil {
			return err
		}
	}
}
