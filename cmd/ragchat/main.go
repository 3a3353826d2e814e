// Command ragchat is a terminal client for the adaptiverag server. It sends
// a question to /api/chat/stream and renders the event stream as it arrives.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	stepStyle     = lipgloss.NewStyle().Faint(true)
	docStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	doneStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "adaptiverag server address")
	session := flag.String("session", "", "session id for checkpoint history")
	retries := flag.Int("retries", 0, "max regeneration retries (0 uses the server default)")
	sources := flag.Bool("sources", true, "show retrieved documents")
	workflow := flag.Bool("workflow", true, "show workflow progress")
	flag.Parse()

	question := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if question != "" {
		if err := ask(*addr, *session, question, *retries, *sources, *workflow); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
			os.Exit(1)
		}
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(questionStyle.Render("? "))
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		q := strings.TrimSpace(scanner.Text())
		if q == "" || q == "exit" || q == "quit" {
			return
		}
		if err := ask(*addr, *session, q, *retries, *sources, *workflow); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		}
	}
}

func ask(addr, session, question string, retries int, sources, workflow bool) error {
	body, err := json.Marshal(map[string]any{
		"question":         question,
		"session_id":       session,
		"max_retries":      retries,
		"include_sources":  sources,
		"include_workflow": workflow,
	})
	if err != nil {
		return err
	}

	resp, err := http.Post(addr+"/api/chat/stream", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	return renderStream(resp.Body)
}

func renderStream(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var event string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			renderEvent(event, []byte(strings.TrimPrefix(line, "data: ")))
		}
	}
	return scanner.Err()
}

func renderEvent(event string, data []byte) {
	switch event {
	case "start":
		var d struct {
			Question string `json:"question"`
		}
		if json.Unmarshal(data, &d) == nil {
			fmt.Println(questionStyle.Render("Q: " + html.UnescapeString(d.Question)))
		}
	case "workflow_step":
		var d struct {
			Node            string `json:"node"`
			LoopStep        int    `json:"loop_step"`
			WebSearchNeeded bool   `json:"web_search_needed"`
		}
		if json.Unmarshal(data, &d) == nil && d.Node != "" {
			suffix := ""
			if d.WebSearchNeeded {
				suffix = " (web search needed)"
			}
			fmt.Println(stepStyle.Render(fmt.Sprintf("· %s attempt=%d%s", d.Node, d.LoopStep, suffix)))
		}
	case "documents":
		var d struct {
			Count     int `json:"count"`
			Documents []struct {
				Content string `json:"content"`
				Source  string `json:"source"`
			} `json:"documents"`
		}
		if json.Unmarshal(data, &d) == nil {
			fmt.Println(docStyle.Render(fmt.Sprintf("— %d documents:", d.Count)))
			for _, doc := range d.Documents {
				label := ""
				if doc.Source != "" {
					label = " [" + doc.Source + "]"
				}
				fmt.Println(docStyle.Render("  · " + html.UnescapeString(doc.Content) + label))
			}
		}
	case "chunk":
		var d struct {
			Content string `json:"content"`
		}
		if json.Unmarshal(data, &d) == nil {
			fmt.Print(html.UnescapeString(d.Content))
		}
	case "done":
		var d struct {
			LoopStep  int    `json:"loop_step"`
			SessionID string `json:"session_id"`
		}
		fmt.Println()
		if json.Unmarshal(data, &d) == nil {
			fmt.Println(doneStyle.Render(fmt.Sprintf("done (attempts=%d, session=%s)", d.LoopStep, d.SessionID)))
		}
	case "error":
		var d struct {
			Message string `json:"message"`
		}
		fmt.Println()
		if json.Unmarshal(data, &d) == nil {
			fmt.Println(errorStyle.Render("failed: " + html.UnescapeString(d.Message)))
		}
	}
}
