package handler

import "github.com/bwmarrin/discordgo"

// Commands returns the slash command definitions registered at startup.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "attendance",
			Description: "Mark your attendance for today",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "status",
					Description: "Attendance status",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Present", Value: "Present"},
						{Name: "Half Day (joining mid-day)", Value: "joining_mid_day"},
						{Name: "Half Day (leaving mid-day)", Value: "leaving_mid_day"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "date",
					Description: "Date (YYYY-MM-DD, today only)",
				},
			},
		},
		{
			Name:        "absent",
			Description: "Mark yourself absent",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "date",
					Description: "Date (YYYY-MM-DD, defaults to today)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Reason for the absence",
				},
			},
		},
		{
			Name:        "lunch",
			Description: "Start your lunch break",
		},
		{
			Name:        "away",
			Description: "Step away from your desk",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Why you are away",
				},
			},
		},
		{
			Name:        "resume",
			Description: "Resume work after lunch or away",
		},
		{
			Name:        "drop",
			Description: "Sign out for the day",
		},
		{
			Name:        "bhai-count",
			Description: "Bhai usage counts",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "User to look up (defaults to you)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "view",
					Description: "Leaderboard view",
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Top 5", Value: "top_5"},
						{Name: "Lower 5", Value: "lower_5"},
						{Name: "All", Value: "all"},
					},
				},
			},
		},
		{
			Name:        "stats",
			Description: "Voice activity stats",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Restrict to one user",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "start_date",
					Description: "Start date (YYYY-MM-DD, defaults to month start)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "end_date",
					Description: "End date (YYYY-MM-DD, defaults to month end)",
				},
			},
		},
		{
			Name:        "csv",
			Description: "Download the activity report as CSV",
			Options:     rangeOptions(),
		},
		{
			Name:        "export",
			Description: "Download the activity report as a spreadsheet",
			Options:     rangeOptions(),
		},
		{
			Name:        "update",
			Description: "Resync global counters from the daily logs (admin)",
		},
		{
			Name:        "help",
			Description: "Show available commands",
		},
	}
}

func rangeOptions() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "start_date",
			Description: "Start date (YYYY-MM-DD, defaults to month start)",
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "end_date",
			Description: "End date (YYYY-MM-DD, defaults to month end)",
		},
	}
}
