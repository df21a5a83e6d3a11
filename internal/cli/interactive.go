package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"Contour/internal/section"
	"Contour/internal/service"
	"Contour/internal/validation"

	"github.com/spf13/cobra"
)

const maxInteractiveBatch = 100

func newInteractiveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Prompt for a component and generate it",
		Long: `Ask for the component type, single or batch mode and the dimensions
of each component, re-prompting until the values pass validation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &prompter{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.OutOrStdout()}
			return runInteractive(cmd, opts.service(cmd), p)
		},
	}
}

func runInteractive(cmd *cobra.Command, svc *service.Service, p *prompter) error {
	kindTag, err := p.choice("Select Component Type (beam/column): ", "Invalid component. Type 'beam' or 'column'.", "beam", "column")
	if err != nil {
		return err
	}
	kind, err := section.ParseKind(kindTag)
	if err != nil {
		return err
	}
	mode, err := p.choice("Select Generation Mode (single/batch): ", "Invalid mode. Type 'single' or 'batch'.", "single", "batch")
	if err != nil {
		return err
	}

	if mode == "single" {
		params, err := p.params(svc.Validator(), kind)
		if err != nil {
			return err
		}
		r, task, err := svc.Start(cmd.Context(), service.Request{ComponentType: kindTag, Params: params})
		if err != nil {
			return err
		}
		fmt.Fprintln(p.out, "Generating...")
		<-task.Done()
		path, err := task.Wait()
		if err != nil {
			return err
		}
		fmt.Fprintf(p.out, "DXF generated: %s\n", path)
		printWarnings(p.out, r.Warnings)
		return nil
	}

	count, err := p.count("How many components? ")
	if err != nil {
		return err
	}
	reqs := make([]service.Request, 0, count)
	for i := 1; i <= count; i++ {
		fmt.Fprintf(p.out, "Component %d of %d\n", i, count)
		params, err := p.params(svc.Validator(), kind)
		if err != nil {
			return err
		}
		reqs = append(reqs, service.Request{ComponentType: kindTag, Params: params})
	}
	if failed := printBatch(p.out, svc.Batch(cmd.Context(), reqs)); failed > 0 {
		return fmt.Errorf("%d of %d entries failed", failed, count)
	}
	return nil
}

// prompter reads answers line by line. EOF ends the session with an error.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

var errInputClosed = errors.New("input closed")

func (p *prompter) ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", errInputClosed
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *prompter) choice(prompt, invalid string, allowed ...string) (string, error) {
	for {
		answer, err := p.ask(prompt)
		if err != nil {
			return "", err
		}
		answer = strings.ToLower(answer)
		for _, a := range allowed {
			if answer == a {
				return a, nil
			}
		}
		fmt.Fprintln(p.out, invalid)
	}
}

// number reads a non-negative float.
func (p *prompter) number(prompt string) (float64, error) {
	for {
		answer, err := p.ask(prompt)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			fmt.Fprintln(p.out, "Error: Invalid number. Please enter a valid number.")
			continue
		}
		if v < 0 {
			fmt.Fprintln(p.out, "Error: Value cannot be negative.")
			continue
		}
		return v, nil
	}
}

func (p *prompter) count(prompt string) (int, error) {
	for {
		answer, err := p.ask(prompt)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > maxInteractiveBatch {
			fmt.Fprintf(p.out, "Error: Enter a whole number between 1 and %d.\n", maxInteractiveBatch)
			continue
		}
		return n, nil
	}
}

// params prompts for every field of kind until the set passes validation.
func (p *prompter) params(v *validation.Validator, kind section.Kind) (map[string]any, error) {
	rules := v.Rules().Fields[kind]
	for {
		fmt.Fprintf(p.out, "Enter parameters for %s:\n", kind)
		params := make(map[string]any, len(rules))
		for _, rule := range rules {
			n, err := p.number(fmt.Sprintf("Enter %s: ", lowerFirst(rule.Description)))
			if err != nil {
				return nil, err
			}
			params[rule.Field] = n
		}
		ok, msg := v.Validate(kind, params)
		if ok {
			return params, nil
		}
		fmt.Fprintf(p.out, "Parameters are invalid: %s\n", msg)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
