package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"strconv"
	"strings"

	"trivia-quiz-service/internal/opentdb"
	"trivia-quiz-service/internal/quizclient"

	"github.com/spf13/cobra"
)

const answerAttempts = 3

// NewPlayCmd builds the interactive terminal player. It drives the same
// client state machine a web frontend would: acquire a token, start a quiz,
// select answers, submit, reset.
func NewPlayCmd() *cobra.Command {
	var serverURL, upstreamURL, userID string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), os.Stdin, os.Stdout, playOptions{
				ServerURL:   serverURL,
				UpstreamURL: upstreamURL,
				UserID:      userID,
			})
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://127.0.0.1:8080", "quiz server base URL")
	cmd.Flags().StringVar(&upstreamURL, "upstream", "", "trivia source base URL (defaults to opentdb.com)")
	cmd.Flags().StringVar(&userID, "user", "", "user tag recorded on quizzes (defaults to anonymous)")
	return cmd
}

type playOptions struct {
	ServerURL   string
	UpstreamURL string
	UserID      string
}

func runPlay(ctx context.Context, in io.Reader, out io.Writer, opts playOptions) error {
	api := quizclient.NewClient(opts.ServerURL, quizclient.DefaultTimeout)
	tokens := opentdb.NewClient(opts.UpstreamURL, opentdb.DefaultTimeout)
	machine := quizclient.NewStateMachine(api, tokens)
	machine.SetUserID(opts.UserID)

	if err := machine.LoadCategories(ctx); err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	reader := bufio.NewReader(in)

	for {
		if err := playRound(ctx, reader, out, machine); err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			fmt.Fprintf(out, "error: %v\n", err)
		}

		answer, err := promptLine(reader, out, "\nPlay again? (y/n) ")
		if err != nil || !strings.HasPrefix(strings.ToLower(answer), "y") {
			return nil
		}
		machine.Reset()
	}
}

func playRound(ctx context.Context, reader *bufio.Reader, out io.Writer, machine *quizclient.StateMachine) error {
	categories := machine.Categories()
	fmt.Fprintln(out, "\nCategories:")
	for _, category := range categories {
		fmt.Fprintf(out, "  %d. %s\n", category.ID, category.Name)
	}

	categoryID, err := promptInt(reader, out, "Category id: ")
	if err != nil {
		return err
	}
	difficulty, err := promptLine(reader, out, "Difficulty (easy/medium/hard): ")
	if err != nil {
		return err
	}
	amount, err := promptInt(reader, out, "Number of questions: ")
	if err != nil {
		return err
	}

	if err := machine.Start(ctx, categoryID, strings.ToLower(difficulty), amount); err != nil {
		return err
	}

	questions := machine.Questions()
	for i, question := range questions {
		fmt.Fprintf(out, "\nQ%d: %s\n\n", i+1, html.UnescapeString(question.Question))

		options := machine.AnswerOrder(i)
		for j, option := range options {
			fmt.Fprintf(out, "%c. %s\n", 'A'+j, html.UnescapeString(option))
		}
		fmt.Fprintln(out)

		chosen, ok, err := readAnswer(reader, out, len(options))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Skipping question.")
			continue
		}
		if err := machine.SelectAnswer(i, options[chosen]); err != nil {
			return err
		}
	}

	submission, err := machine.Submit(ctx)
	if err != nil {
		return err
	}

	band := quizclient.ScoreBand(submission.Score, submission.TotalQuestions)
	fmt.Fprintf(out, "\nYou scored %d out of %d (%s)\n", submission.Score, submission.TotalQuestions, band)
	for _, result := range submission.Questions {
		if result.UserAnswer != result.CorrectAnswer {
			fmt.Fprintf(out, "  %s\n    correct: %s\n", html.UnescapeString(result.Question), html.UnescapeString(result.CorrectAnswer))
		}
	}
	return nil
}

func promptLine(reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptInt(reader *bufio.Reader, out io.Writer, prompt string) (int, error) {
	line, err := promptLine(reader, out, prompt)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("expected a number, got %q", line)
	}
	return value, nil
}

func readAnswer(reader *bufio.Reader, out io.Writer, optionCount int) (int, bool, error) {
	if optionCount < 1 {
		return -1, false, nil
	}
	maxLetter := byte('A' + optionCount - 1)

	for attempt := 1; attempt <= answerAttempts; attempt++ {
		line, err := promptLine(reader, out, "> ")
		if err != nil {
			return -1, false, err
		}
		line = strings.ToUpper(line)
		if len(line) == 1 {
			letter := line[0]
			if letter >= 'A' && letter <= maxLetter {
				return int(letter - 'A'), true, nil
			}
		}
		if attempt < answerAttempts {
			fmt.Fprintf(out, "Invalid input. Please enter a letter A-%c.\n", maxLetter)
		}
	}
	return -1, false, nil
}
