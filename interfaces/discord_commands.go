package interfaces

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/sirupsen/logrus"

	"wordbearer/domain"
	"wordbearer/usecase"
)

const (
	replySubmitted   = "Your match results have been submitted!"
	replyFailed      = "Oops! Something went wrong. Please alert a league organizer if this was unexpected."
	replyNoLeague    = "I don't know that league."
	replyUnknownCmd  = "Unknown command."
	maxNotesLength   = 300
	maxAutocompleted = 25
)

// MatchCommands serves the /match command group.
type MatchCommands struct {
	leagues *usecase.Leagues
	now     func() time.Time
	log     logrus.FieldLogger
}

func NewMatchCommands(leagues *usecase.Leagues, log logrus.FieldLogger) *MatchCommands {
	return &MatchCommands{leagues: leagues, now: time.Now, log: log}
}

// Definitions are the application commands to register.
func (c *MatchCommands) Definitions() []discord.ApplicationCommandCreate {
	maxNotes := maxNotesLength
	return []discord.ApplicationCommandCreate{
		discord.SlashCommandCreate{
			Name:        "match",
			Description: "Ladder league matches",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionSubCommand{
					Name:        "report",
					Description: "Submit match",
					Options: []discord.ApplicationCommandOption{
						discord.ApplicationCommandOptionUser{
							Name:        "opponent",
							Description: "Your opponent",
							Required:    true,
						},
						discord.ApplicationCommandOptionString{
							Name:         "league",
							Description:  "Which league is this for?",
							Required:     true,
							Autocomplete: true,
						},
						discord.ApplicationCommandOptionString{
							Name:        "result",
							Description: "Who won?",
							Required:    true,
							Choices: []discord.ApplicationCommandOptionChoiceString{
								{Name: "Me", Value: string(domain.OutcomeWin)},
								{Name: "My opponent", Value: string(domain.OutcomeLoss)},
								{Name: "It was a draw", Value: string(domain.OutcomeDraw)},
							},
						},
						discord.ApplicationCommandOptionString{
							Name:        "notes",
							Description: "Additional information, if you have any",
							MaxLength:   &maxNotes,
						},
					},
				},
				discord.ApplicationCommandOptionSubCommand{
					Name:        "standings",
					Description: "Show the current ladder",
					Options: []discord.ApplicationCommandOption{
						discord.ApplicationCommandOptionString{
							Name:         "league",
							Description:  "Which league?",
							Required:     true,
							Autocomplete: true,
						},
					},
				},
			},
		},
	}
}

// reportRequest is what /match report carries once read off the interaction.
type reportRequest struct {
	Player   string
	Opponent string
	League   string
	Result   string
	Notes    string
}

func (c *MatchCommands) OnCommand(e *events.ApplicationCommandInteractionCreate) {
	data := e.SlashCommandInteractionData()
	if data.CommandName() != "match" || data.SubCommandName == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var reply string
	switch *data.SubCommandName {
	case "report":
		opponent := data.User("opponent")
		reply = c.report(ctx, reportRequest{
			Player:   e.User().Username,
			Opponent: opponent.Username,
			League:   data.String("league"),
			Result:   data.String("result"),
			Notes:    data.String("notes"),
		})
	case "standings":
		reply = c.standings(ctx, data.String("league"))
	default:
		reply = replyUnknownCmd
	}

	err := e.CreateMessage(discord.NewMessageCreateBuilder().
		SetContent(reply).
		SetEphemeral(true).
		Build())
	if err != nil {
		c.log.WithError(err).Error("responding to interaction failed")
	}
}

func (c *MatchCommands) report(ctx context.Context, req reportRequest) string {
	log := c.log.WithFields(logrus.Fields{"player": req.Player, "league": req.League})

	outcome, err := domain.ParseOutcome(req.Result)
	if err != nil {
		log.WithError(err).Warn("match report rejected")
		return replyFailed
	}
	sub := domain.NewSubmission(req.Player, req.Opponent, req.League, outcome, req.Notes, c.now())

	// Players only ever see the generic failure; the reason goes to the log.
	err = c.leagues.ReportMatch(ctx, sub)
	switch {
	case err == nil:
		return replySubmitted
	case errors.Is(err, domain.ErrUnknownLeague), errors.Is(err, domain.ErrInvalidResult):
		log.WithError(err).Warn("match report rejected")
	default:
		log.WithError(err).Error("storing match report failed")
	}
	return replyFailed
}

func (c *MatchCommands) standings(ctx context.Context, league string) string {
	m, ok := c.leagues.Get(league)
	if !ok {
		return replyNoLeague
	}
	players, err := m.Standings(ctx)
	if err != nil {
		c.log.WithError(err).WithField("league", league).Error("computing standings failed")
		return replyFailed
	}
	if len(players) == 0 {
		return "No results have been reported for " + league + " yet."
	}
	return usecase.StandingsMessage(league, players, c.now().UTC())
}

// OnAutocomplete offers league names for the league option.
func (c *MatchCommands) OnAutocomplete(e *events.AutocompleteInteractionCreate) {
	if e.Data.CommandName != "match" {
		return
	}
	focused := e.Data.Focused()
	if focused.Name != "league" {
		return
	}

	var names []string
	if e.Data.SubCommandName != nil && *e.Data.SubCommandName == "standings" {
		names = c.leagues.Names()
	} else {
		names = c.leagues.ActiveNames()
	}
	choices := leagueChoices(names, e.Data.String("league"))
	if err := e.AutocompleteResult(choices); err != nil {
		c.log.WithError(err).Error("autocomplete response failed")
	}
}

// leagueChoices filters names by a case-insensitive prefix. With nothing to
// offer it returns the placeholder entry.
func leagueChoices(names []string, typed string) []discord.AutocompleteChoice {
	typed = strings.ToLower(strings.TrimSpace(typed))
	var choices []discord.AutocompleteChoice
	for _, name := range names {
		if typed != "" && !strings.HasPrefix(strings.ToLower(name), typed) {
			continue
		}
		choices = append(choices, discord.AutocompleteChoiceString{Name: name, Value: name})
		if len(choices) == maxAutocompleted {
			break
		}
	}
	if len(choices) == 0 {
		choices = append(choices, discord.AutocompleteChoiceString{Name: usecase.NoActiveLeagues, Value: usecase.NoActiveLeagues})
	}
	return choices
}
