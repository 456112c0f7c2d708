package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core/academy"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/dashboard"
)

func (cli *commandLine) blocksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "Edit the content blocks of a lesson",
	}

	ls := &cobra.Command{
		Use:   "ls LESSON_ID",
		Short: "Show the blocks of a lesson with their downloadables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.listBlocks(args[0])
		},
	}

	var (
		lessonID string
		edits    academy.BlockContent
	)
	save := &cobra.Command{
		Use:   "save BLOCK_ID",
		Short: "Save the content of a block; fields without a flag keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.saveBlock(lessonID, args[0], edits, cmd.Flags().Changed)
		},
	}
	save.Flags().StringVar(&lessonID, "lesson", "", "lesson id")
	save.Flags().StringVar(&edits.Title, "title", "", "block title")
	save.Flags().StringVar(&edits.KeyPoints, "key-points", "", "key points")
	save.Flags().StringVar(&edits.FullContent, "content", "", "full script")
	save.Flags().StringVar(&edits.GensparkPrompt, "prompt", "", "presentation prompt")
	save.Flags().StringVar(&edits.Concepto, "concepto", "", "concept section")
	save.Flags().StringVar(&edits.Valor, "valor", "", "value section")
	save.Flags().StringVar(&edits.Accion, "accion", "", "action section")
	save.Flags().StringVar(&edits.VideoURL, "video", "", "video url")
	save.Flags().StringVar(&edits.PPTURL, "ppt", "", "presentation url")
	_ = save.MarkFlagRequired("lesson")

	var nd academy.NewDownloadable
	addDl := &cobra.Command{
		Use:   "add-downloadable BLOCK_ID",
		Short: "Add a downloadable to a block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nd.BlockID = args[0]
			return cli.addDownloadable(lessonID, nd)
		},
	}
	addDl.Flags().StringVar(&lessonID, "lesson", "", "lesson id")
	addDl.Flags().StringVar(&nd.Name, "name", "", "downloadable name")
	addDl.Flags().StringVar((*string)(&nd.Type), "type", string(academy.TypePDF), "pdf | excel | word | image")
	addDl.Flags().StringVar(&nd.PromptGeneration, "prompt", "", "generation prompt")
	addDl.Flags().StringVar(&nd.FileURL, "file", "", "file url")
	_ = addDl.MarkFlagRequired("lesson")
	_ = addDl.MarkFlagRequired("name")

	cmd.AddCommand(ls, save, addDl)
	return cmd
}

func (cli *commandLine) blockEditor(lessonID string) (*dashboard.BlockEditor, error) {
	ctx, err := cli.context()
	if err != nil {
		return nil, err
	}
	be := dashboard.NewBlockEditor(cli.academySvc, cli.taskSvc, cli.sync, cli.logger)
	if err := be.Load(ctx, lessonID); err != nil {
		return nil, err
	}
	return be, nil
}

func (cli *commandLine) listBlocks(lessonID string) error {
	be, err := cli.blockEditor(lessonID)
	if err != nil {
		return err
	}
	defer be.Close()
	cli.printBlocks(be)
	return nil
}

func (cli *commandLine) printBlocks(be *dashboard.BlockEditor) {
	l := be.Lesson()
	fmt.Fprintf(cli.out, "%s [%s]  (%s)\n", l.Title, l.Status, l.ID)
	for _, b := range be.Blocks() {
		fmt.Fprintf(cli.out, "  %s: %s %d%%  (%s)\n", b.Title, b.ProductionStatus, b.ProgressPercentage, b.ID)
		for _, dl := range be.Downloadables(b.ID) {
			fmt.Fprintf(cli.out, "      %s [%s, %s]  (%s)\n", dl.Name, dl.Type, dl.Status, dl.ID)
		}
	}
}

func (cli *commandLine) saveBlock(lessonID, blockID string, edits academy.BlockContent, changed func(flag string) bool) error {
	ctx, err := cli.context()
	if err != nil {
		return err
	}
	be, err := cli.blockEditor(lessonID)
	if err != nil {
		return err
	}
	defer be.Close()

	blk, ok := be.Block(blockID)
	if !ok {
		return errors.Errorf("block %s is not part of lesson %s", blockID, lessonID)
	}
	bc := academy.ContentOf(blk)
	for flag, field := range map[string]struct {
		dst *string
		src string
	}{
		"title":      {&bc.Title, edits.Title},
		"key-points": {&bc.KeyPoints, edits.KeyPoints},
		"content":    {&bc.FullContent, edits.FullContent},
		"prompt":     {&bc.GensparkPrompt, edits.GensparkPrompt},
		"concepto":   {&bc.Concepto, edits.Concepto},
		"valor":      {&bc.Valor, edits.Valor},
		"accion":     {&bc.Accion, edits.Accion},
		"video":      {&bc.VideoURL, edits.VideoURL},
		"ppt":        {&bc.PPTURL, edits.PPTURL},
	} {
		if changed(flag) {
			*field.dst = field.src
		}
	}

	if err := outcome(be.SaveBlock(ctx, blockID, bc)); err != nil {
		return err
	}
	cli.printBlocks(be)
	return nil
}

func (cli *commandLine) addDownloadable(lessonID string, nd academy.NewDownloadable) error {
	ctx, err := cli.context()
	if err != nil {
		return err
	}
	be, err := cli.blockEditor(lessonID)
	if err != nil {
		return err
	}
	defer be.Close()

	if _, ok := be.Block(nd.BlockID); !ok {
		return errors.Errorf("block %s is not part of lesson %s", nd.BlockID, lessonID)
	}
	if err := outcome(be.AddDownloadable(ctx, nd)); err != nil {
		return err
	}
	cli.printBlocks(be)
	return nil
}
