package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/workmatch/workmatch/internal/api"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the matching engine",
	Long: `Talk to the matching engine.

Examples:
  workmatch chat --subject user-1 --message "I'm looking for a backend role"
  workmatch chat --subject emp-1 --kind employer --message "Need a Python dev, 3+ years"
  workmatch chat --subject user-1          # interactive session`,
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		kind, _ := cmd.Flags().GetString("kind")
		message, _ := cmd.Flags().GetString("message")
		sessionID, _ := cmd.Flags().GetString("session")

		if subject == "" {
			return fmt.Errorf("--subject is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		if message != "" {
			_, err := sendTurn(cmd.Context(), client, sessionID, subject, kind, message)
			return err
		}
		return interactiveChat(cmd.Context(), client, sessionID, subject, kind)
	},
}

func sendTurn(ctx context.Context, client *apiClient, sessionID, subject, kind, message string) (string, error) {
	resp, err := client.post(ctx, "/v1/chat", api.ChatRequest{
		SessionID: sessionID,
		SubjectID: subject,
		Kind:      kind,
		Message:   message,
	})
	if err != nil {
		return "", err
	}

	var turn api.ChatResponse
	if err := decodeJSON(resp, &turn); err != nil {
		return "", err
	}

	printAssistant(turn.AssistantMessage)
	if turn.ShowedResults && len(turn.Recommendations) == 0 {
		printWarning("no matches this time")
	}
	return turn.SessionID, nil
}

func interactiveChat(ctx context.Context, client *apiClient, sessionID, subject, kind string) error {
	// Open the session with a blank turn to get the greeting.
	sid, err := sendTurn(ctx, client, sessionID, subject, kind, "")
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		if sid, err = sendTurn(ctx, client, sid, subject, kind, line); err != nil {
			return err
		}
	}
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect a conversation session",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		if id == "" {
			return fmt.Errorf("--id is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/sessions/"+id)
		if err != nil {
			return err
		}

		var view api.SessionView
		if err := decodeJSON(resp, &view); err != nil {
			return err
		}

		printStatus("Session", "%s (%s, %d turns, score %.0f)", view.ID, view.Kind, view.TurnCount, view.CurrentScore)
		for i, turn := range view.Turns {
			fmt.Printf("%2d> %s\n", i+1, turn.UserMessage)
			printAssistant(turn.AssistantMessage)
		}
		return nil
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage job postings",
}

var jobsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a job posting",
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		company, _ := cmd.Flags().GetString("company")
		description, _ := cmd.Flags().GetString("description")
		location, _ := cmd.Flags().GetString("location")
		remote, _ := cmd.Flags().GetBool("remote")
		salaryMin, _ := cmd.Flags().GetInt64("salary-min")
		salaryMax, _ := cmd.Flags().GetInt64("salary-max")
		skillsStr, _ := cmd.Flags().GetString("skills")
		status, _ := cmd.Flags().GetString("status")

		if title == "" {
			return fmt.Errorf("--title is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/v1/jobs", api.JobRequest{
			Title:          title,
			Company:        company,
			Description:    description,
			RequiredSkills: splitFlagList(skillsStr),
			Location:       location,
			Remote:         remote,
			SalaryMin:      salaryMin,
			SalaryMax:      salaryMax,
			Status:         status,
		})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Created job %s", result["id"])
		return nil
	},
}

var jobsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a job posting from a URL (saved as draft)",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")
		company, _ := cmd.Flags().GetString("company")
		if url == "" {
			return fmt.Errorf("--url is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/v1/jobs/from-url", api.JobFromURLRequest{URL: url, Company: company})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Imported job %s as draft", result["id"])
		return nil
	},
}

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Manage candidate profiles",
}

var candidatesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a candidate profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		title, _ := cmd.Flags().GetString("title")
		location, _ := cmd.Flags().GetString("location")
		remoteOK, _ := cmd.Flags().GetBool("remote-ok")
		years, _ := cmd.Flags().GetInt("experience")
		skillsStr, _ := cmd.Flags().GetString("skills")
		status, _ := cmd.Flags().GetString("status")

		if name == "" {
			return fmt.Errorf("--name is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/v1/candidates", api.CandidateRequest{
			Name:            name,
			Title:           title,
			Skills:          splitFlagList(skillsStr),
			Location:        location,
			ExperienceYears: years,
			RemoteOK:        remoteOK,
			Status:          status,
		})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Created candidate %s", result["id"])
		return nil
	},
}

func splitFlagList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	chatCmd.Flags().String("subject", "", "stable id of the person chatting")
	chatCmd.Flags().String("kind", "seeker", "seeker or employer")
	chatCmd.Flags().String("message", "", "single message; omit for interactive mode")
	chatCmd.Flags().String("session", "", "existing session id to continue")
	sessionCmd.Flags().String("id", "", "session id to inspect")

	jobsAddCmd.Flags().String("title", "", "job title")
	jobsAddCmd.Flags().String("company", "", "company name")
	jobsAddCmd.Flags().String("description", "", "job description")
	jobsAddCmd.Flags().String("location", "", "work location")
	jobsAddCmd.Flags().Bool("remote", false, "remote-friendly")
	jobsAddCmd.Flags().Int64("salary-min", 0, "minimum yearly salary")
	jobsAddCmd.Flags().Int64("salary-max", 0, "maximum yearly salary")
	jobsAddCmd.Flags().String("skills", "", "comma-separated required skills")
	jobsAddCmd.Flags().String("status", "published", "posting status")
	jobsImportCmd.Flags().String("url", "", "public posting URL")
	jobsImportCmd.Flags().String("company", "", "company name")
	jobsCmd.AddCommand(jobsAddCmd)
	jobsCmd.AddCommand(jobsImportCmd)

	candidatesAddCmd.Flags().String("name", "", "candidate name")
	candidatesAddCmd.Flags().String("title", "", "current or desired title")
	candidatesAddCmd.Flags().String("location", "", "location")
	candidatesAddCmd.Flags().Bool("remote-ok", false, "open to remote work")
	candidatesAddCmd.Flags().Int("experience", 0, "years of experience")
	candidatesAddCmd.Flags().String("skills", "", "comma-separated skills")
	candidatesAddCmd.Flags().String("status", "active", "profile status")
	candidatesCmd.AddCommand(candidatesAddCmd)
}
