package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
)

// cli holds the interactive session state.
type cli struct {
	rl                *readline.Instance
	httpClient        *http.Client
	baseURL           string
	currentCollection string
}

func main() {
	serverURL := flag.String("server", "http://localhost:5876", "base URL of the docstore server")
	flag.Parse()

	completer := readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("info"),
		readline.PcItem("use"),
		readline.PcItem("add"),
		readline.PcItem("get"),
		readline.PcItem("find"),
		readline.PcItem("all"),
		readline.PcItem("set"),
		readline.PcItem("update"),
		readline.PcItem("delete"),
		readline.PcItem("clear"),
		readline.PcItem("exit"),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          colorPrompt("docstore> "),
		HistoryFile:     os.TempDir() + "/docstore_client_history.tmp",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Println(colorErr("Failed to initialize terminal:"), err)
		os.Exit(1)
	}
	defer rl.Close()

	c := &cli{
		rl:         rl,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(*serverURL, "/"),
	}

	fmt.Println(colorInfo("Connected to"), c.baseURL)
	fmt.Println(colorInfo("Type 'help' for the command list."))

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		c.execute(line)
	}
}

func (c *cli) execute(line string) {
	cmd, args := splitCommand(line)

	switch cmd {
	case "help":
		printHelp()
	case "clear":
		clearScreen()
	case "info":
		c.runInfo()
	case "use":
		if args == "" {
			fmt.Println(colorErr("Usage: use <collection>"))
			return
		}
		c.currentCollection = args
		c.rl.SetPrompt(colorPrompt(fmt.Sprintf("docstore(%s)> ", args)))
	case "add":
		c.runAdd(args)
	case "get", "delete":
		c.runTargeted(cmd, args)
	case "find":
		c.runFind(args)
	case "all":
		c.runFind("{}")
	case "set", "update":
		c.runMutate(cmd, args)
	default:
		fmt.Println(colorErr(fmt.Sprintf("Unknown command %q. Type 'help' for the command list.", cmd)))
	}
}

func (c *cli) collection() (string, bool) {
	if c.currentCollection == "" {
		fmt.Println(colorErr("No collection selected. Use 'use <collection>' first."))
		return "", false
	}
	return c.currentCollection, true
}

func (c *cli) runInfo() {
	resp, err := c.httpClient.Get(c.baseURL + "/info")
	if err != nil {
		fmt.Println(colorErr("Server unreachable:"), err)
		return
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	fmt.Println(colorOK("Server responded:"), strings.TrimSpace(string(body)))
}

func (c *cli) runAdd(args string) {
	collection, ok := c.collection()
	if !ok {
		return
	}
	data, rest, err := takeJSONObject(args)
	if err != nil || rest != "" {
		fmt.Println(colorErr("Usage: add <json-document>"))
		return
	}
	c.post(map[string]any{"action": "add", "collection": collection, "data": data})
}

func (c *cli) runTargeted(action, args string) {
	collection, ok := c.collection()
	if !ok {
		return
	}
	req := map[string]any{"action": action, "collection": collection}
	if strings.HasPrefix(args, "{") {
		query, rest, err := takeJSONObject(args)
		if err != nil || rest != "" {
			fmt.Println(colorErr(fmt.Sprintf("Usage: %s <id> | %s <json-query>", action, action)))
			return
		}
		req["query"] = query
	} else {
		if args == "" || strings.ContainsAny(args, " \t") {
			fmt.Println(colorErr(fmt.Sprintf("Usage: %s <id> | %s <json-query>", action, action)))
			return
		}
		req["document"] = args
	}
	c.post(req)
}

func (c *cli) runFind(args string) {
	collection, ok := c.collection()
	if !ok {
		return
	}
	query, rest, err := takeJSONObject(args)
	if err != nil || rest != "" {
		fmt.Println(colorErr("Usage: find <json-query>"))
		return
	}
	c.post(map[string]any{"action": "get", "collection": collection, "query": query})
}

func (c *cli) runMutate(action, args string) {
	collection, ok := c.collection()
	if !ok {
		return
	}
	req := map[string]any{"action": action, "collection": collection}

	rest := args
	if strings.HasPrefix(rest, "{") {
		query, remainder, err := takeJSONObject(rest)
		if err != nil {
			fmt.Println(colorErr(fmt.Sprintf("Usage: %s <id|json-query> <json-data>", action)))
			return
		}
		req["query"] = query
		rest = remainder
	} else {
		parts := strings.SplitN(rest, " ", 2)
		if len(parts) != 2 {
			fmt.Println(colorErr(fmt.Sprintf("Usage: %s <id|json-query> <json-data>", action)))
			return
		}
		req["document"] = parts[0]
		rest = strings.TrimSpace(parts[1])
	}

	data, remainder, err := takeJSONObject(rest)
	if err != nil || remainder != "" {
		fmt.Println(colorErr(fmt.Sprintf("Usage: %s <id|json-query> <json-data>", action)))
		return
	}
	req["data"] = data
	c.post(req)
}

func printHelp() {
	fmt.Println(colorInfo("Commands:"))
	fmt.Println("  use <collection>                 select the working collection")
	fmt.Println("  add <json-document>              insert a document")
	fmt.Println("  get <id> | get <json-query>      read documents")
	fmt.Println("  find <json-query>                read documents by predicate")
	fmt.Println("  all                              read every document")
	fmt.Println("  set <id|query> <json-data>       replace documents")
	fmt.Println("  update <id|query> <json-data>    merge fields into documents")
	fmt.Println("  delete <id> | delete <query>     remove documents")
	fmt.Println("  info                             check server liveness")
	fmt.Println("  clear, help, exit")
	fmt.Println(colorInfo("Query operators:"), "$eq $ne $lt $lte $gt $gte $in $nin, e.g. {\"age\":{\"$gt\":21}}")
}
