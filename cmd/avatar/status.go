package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/avatar-cli/avatar/internal/state"
)

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show project, integrity chain and image status",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := state.NewDetector(a.sc, a.engine).Detect(cmd.Context())
			printStatus(cmd.OutOrStdout(), st)
			return nil
		},
	}
}

func printStatus(w io.Writer, st *state.ProjectState) {
	fmt.Fprintln(w, TitleStyle.Render("Avatar Status"))
	fmt.Fprintln(w)

	line := func(label, value string) {
		fmt.Fprintf(w, "  %s %s\n", LabelStyle.Render(label), value)
	}

	if st.InSession {
		line("Session:", SuccessStyle.Render("active")+" ("+st.Token+")")
	} else {
		line("Session:", "none")
	}

	if !st.ProjectFound {
		line("Project:", WarningStyle.Render("not found from "+st.WorkingDir))
		printEngine(w, st, line)
		return
	}
	line("Project:", st.Paths.Root)
	line("Config:", presence(st.ConfigExists))
	line("Lock:", presence(st.LockExists))
	line("State:", presence(st.StateExists))

	if st.Verified() {
		line("Integrity:", SuccessStyle.Render("verified"))
	} else {
		line("Integrity:", ErrorStyle.Render(st.ChainErr.Error()))
	}

	printEngine(w, st, line)

	if len(st.Tools) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, TitleStyle.Render("Tools"))
		for _, tool := range st.Tools {
			fmt.Fprintf(w, "  %s\n", CmdStyle.Render(tool))
		}
	}

	if len(st.Images) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, TitleStyle.Render("Images"))
		for _, img := range st.Images {
			var mark string
			switch {
			case img.Err != nil:
				mark = ErrorStyle.Render("error: " + img.Err.Error())
			case img.Present:
				mark = SuccessStyle.Render("present")
			default:
				mark = WarningStyle.Render("missing")
			}
			fmt.Fprintf(w, "  %s %s\n", CmdStyle.Render(img.Ref), mark)
		}
	}
}

func printEngine(w io.Writer, st *state.ProjectState, line func(string, string)) {
	if st.EngineErr != nil {
		line("Engine:", ErrorStyle.Render(st.EngineErr.Error()))
		return
	}
	line("Engine:", st.EnginePath)
}

func presence(ok bool) string {
	if ok {
		return SuccessStyle.Render("present")
	}
	return WarningStyle.Render("missing")
}
