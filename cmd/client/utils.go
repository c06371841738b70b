package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/olekukonko/tablewriter"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Color definitions for the interface
var (
	colorOK     = color.New(color.FgGreen, color.Bold).SprintFunc()
	colorErr    = color.New(color.FgRed, color.Bold).SprintFunc()
	colorPrompt = color.New(color.FgMagenta).SprintFunc()
	colorInfo   = color.New(color.FgBlue).SprintFunc()
)

// splitCommand parses user input into a command and its arguments.
func splitCommand(input string) (string, string) {
	parts := strings.SplitN(input, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}

// takeJSONObject parses one JSON object off the front of args, returning
// the object and whatever follows it. Braces inside string literals are
// handled so payloads may contain "{" and "}" freely.
func takeJSONObject(args string) (map[string]any, string, error) {
	args = strings.TrimSpace(args)
	if !strings.HasPrefix(args, "{") {
		return nil, "", fmt.Errorf("expected a JSON object")
	}

	depth := 0
	inString := false
	escaped := false
	end := -1
	for i, r := range args {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && inString:
			escaped = true
		case r == '"':
			inString = !inString
		case inString:
		case r == '{':
			depth++
		case r == '}':
			depth--
			if depth == 0 {
				end = i + 1
			}
		}
		if end != -1 {
			break
		}
	}
	if end == -1 {
		return nil, "", fmt.Errorf("unterminated JSON object")
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(args[:end]), &obj); err != nil {
		return nil, "", fmt.Errorf("invalid JSON: %w", err)
	}
	return obj, strings.TrimSpace(args[end:]), nil
}

// clearScreen clears the terminal screen.
func clearScreen() {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "cls")
	default:
		cmd = exec.Command("clear")
	}
	cmd.Stdout = os.Stdout
	_ = cmd.Run()
}

// post sends an operation to the server and renders the response.
func (c *cli) post(req map[string]any) {
	body, err := json.Marshal(req)
	if err != nil {
		fmt.Println(colorErr("Failed to encode request:"), err)
		return
	}

	resp, err := c.httpClient.Post(c.baseURL+"/store", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Println(colorErr("Server unreachable:"), err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Response  string           `json:"response"`
		Message   string           `json:"message"`
		Documents []map[string]any `json:"documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		fmt.Println(colorErr("Unreadable server response:"), err)
		return
	}

	statusLine := colorOK(strings.ToUpper(result.Response))
	if result.Response != "ok" {
		statusLine = colorErr(strings.ToUpper(result.Response))
	}
	if result.Message != "" {
		fmt.Printf("%s  %s\n", statusLine, result.Message)
	} else {
		fmt.Println(statusLine)
	}

	if len(result.Documents) > 0 {
		printDocumentTable(result.Documents)
		fmt.Printf("%s %d\n", colorInfo("Documents:"), len(result.Documents))
	}
	fmt.Println("---")
}

// printDocumentTable renders documents as a formatted table with one
// column per field seen across the set.
func printDocumentTable(docs []map[string]any) {
	headerSet := make(map[string]bool)
	for _, doc := range docs {
		for key := range doc {
			headerSet[key] = true
		}
	}
	headers := make([]string, 0, len(headerSet))
	for key := range headerSet {
		headers = append(headers, key)
	}
	sort.Strings(headers)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	for _, doc := range docs {
		row := make([]string, len(headers))
		for i, header := range headers {
			val, ok := doc[header]
			if !ok {
				row[i] = "(n/a)"
				continue
			}
			switch v := val.(type) {
			case map[string]any, []any:
				jsonVal, _ := json.MarshalIndent(v, "", "  ")
				row[i] = string(jsonVal)
			case nil:
				row[i] = "(nil)"
			default:
				row[i] = fmt.Sprintf("%v", v)
			}
		}
		table.Append(row)
	}
	table.Render()
}
