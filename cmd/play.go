package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/practiz/internal/app"
	"github.com/abhisek/practiz/internal/selector"
	"github.com/abhisek/practiz/internal/session"
	"github.com/abhisek/practiz/internal/ui/render"
	"github.com/abhisek/practiz/internal/ui/theme"
)

const playHelp = "Commands: :skip  :pause  :resume  :quit  :help"

var playCmd = &cobra.Command{
	Use:   "play <topic-id>",
	Short: "Start a practice session",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlay,
}

func init() {
	f := playCmd.Flags()
	f.Int("count", 10, "Number of questions (0 for every eligible question)")
	f.String("time-mode", string(session.TimeUnlimited), "Time limit: unlimited, 10min, 5min or 3min")
	f.String("strategy", string(selector.StrategyAdaptive), "Selection strategy: adaptive, sequential, random or review")
	f.Bool("variety", true, "Mix cognitive levels so no level runs too long")
	f.Uint64("seed", 0, "Seed for question selection (0 picks one at random)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	out := cmd.OutOrStdout()

	count, _ := cmd.Flags().GetInt("count")
	variety, _ := cmd.Flags().GetBool("variety")
	seed, _ := cmd.Flags().GetUint64("seed")
	tm, _ := cmd.Flags().GetString("time-mode")
	timeMode, err := session.ParseTimeMode(tm)
	if err != nil {
		return err
	}
	st, _ := cmd.Flags().GetString("strategy")
	strategy, err := selector.ParseStrategy(st)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	lib, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	backend, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	ended := make(chan session.Summary, 1)
	opts := app.Options{
		Content: lib,
		Store:   backend,
		Logger:  newLogger(cfg),
		OnEnd: func(_ string, sum session.Summary) {
			select {
			case ended <- sum:
			default:
			}
		},
	}
	if seed != 0 {
		opts.Rand = rand.New(rand.NewPCG(seed, seed))
	}

	runner := app.NewRunner(opts)
	if err := runner.Start(); err != nil {
		return err
	}
	// Stop the scheduler, then drain saves before the store closes.
	defer runner.Wait()
	defer runner.Stop()

	s, err := runner.Begin(ctx, cfg.UserID, args[0], app.BeginOptions{
		Count:    count,
		Strategy: strategy,
		TimeMode: timeMode,
		Variety:  variety,
	})
	if err != nil {
		return err
	}
	if s.Status.Terminal() {
		fmt.Fprintln(out, theme.Hint.Render("No questions are available for this topic right now."))
		return nil
	}

	fmt.Fprintln(out, theme.Title.Render(s.Config.TopicName))
	fmt.Fprintln(out, theme.Hint.Render(playHelp))

	lines := readLines(ctx, cmd.InOrStdin())
	for {
		cur, err := runner.Current(s.ID)
		if errors.Is(err, app.ErrUnknownSession) {
			fmt.Fprintln(out, render.Summary(<-ended))
			return nil
		}
		if err != nil {
			return err
		}

		q := cur.CurrentQuestion()
		fmt.Fprintln(out)
		if cur.Status == session.StatusPaused {
			fmt.Fprintln(out, theme.Hint.Render("Paused. Type :resume to continue."))
		} else if q != nil {
			fmt.Fprintln(out, render.Timer(cur.Progress))
			fmt.Fprint(out, render.Question(q.Question.Redacted(), cur.Progress.CurrentQuestionIndex, len(cur.Questions)))
		}
		fmt.Fprint(out, theme.Key.Render("> "))
		asked := time.Now()

		var line string
		select {
		case sum := <-ended:
			fmt.Fprintln(out)
			fmt.Fprintln(out, render.Summary(sum))
			return nil
		case <-ctx.Done():
			line = ":quit"
		case l, ok := <-lines:
			if !ok {
				line = ":quit"
			} else {
				line = l
			}
		}

		switch strings.ToLower(line) {
		case "":
			continue
		case ":help":
			fmt.Fprintln(out, theme.Hint.Render(playHelp))
			continue
		case ":skip":
			_, err = runner.Skip(ctx, s.ID)
		case ":pause":
			_, err = runner.Pause(ctx, s.ID)
		case ":resume":
			_, err = runner.Resume(ctx, s.ID)
		case ":quit":
			var sum session.Summary
			sum, err = runner.Quit(ctx, s.ID)
			if err == nil {
				fmt.Fprintln(out, render.Summary(sum))
				return nil
			}
		default:
			if q == nil || cur.Status != session.StatusInProgress {
				fmt.Fprintln(out, theme.Hint.Render("The session is paused."))
				continue
			}
			var res session.AnswerOutcome
			res, err = runner.Answer(ctx, s.ID, parseAnswer(q.Question, line), time.Since(asked))
			if err == nil {
				fmt.Fprint(out, render.Feedback(res))
			}
		}

		switch {
		case err == nil, errors.Is(err, app.ErrUnknownSession), errors.Is(err, app.ErrTimedOut):
			// A session that ended under us is reported on the next pass.
		case errors.Is(err, session.ErrInvalidTransition):
			fmt.Fprintln(out, theme.Hint.Render(err.Error()))
		default:
			return err
		}
	}
}

// readLines feeds trimmed input lines to a channel so the prompt can also
// wait on a timeout. The channel closes at end of input or once ctx is
// done and the next line arrives.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			if ctx.Err() != nil {
				return
			}
			select {
			case ch <- strings.TrimSpace(sc.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
