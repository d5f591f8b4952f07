package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// printFn writes the prompt.
var printFn = fmt.Print

// commander is the command surface the REPL dispatches to. App satisfies it;
// tests use a stub.
type commander interface {
	isUnlocked() bool

	Unlock(ctx context.Context) error
	Lock(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	Status(ctx context.Context) error
	Reset(ctx context.Context) error

	List(ctx context.Context) error
	Search(ctx context.Context, term string) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	Show(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	Copy(ctx context.Context, id string) error
	Generate(ctx context.Context, length string) error
	Strength(ctx context.Context) error

	Codes(ctx context.Context) error
	AddTwoFactor(ctx context.Context) error
	ImportTwoFactor(ctx context.Context) error
	TwoFactorURI(ctx context.Context, id string) error
	TwoFactorQR(ctx context.Context, id, path string) error
	TwoFactorNext(ctx context.Context, id string) error
	TwoFactorCopy(ctx context.Context, id string) error
	DeleteTwoFactor(ctx context.Context, id string) error
}

const (
	helpLocked   = "Available commands: unlock, status, reset, generate [len], strength, help, exit"
	helpUnlocked = "Available commands: list, search <term>, add, edit <id>, show <id>, delete <id>, deleteall, copy <id>,\n" +
		"  2fa, 2fa-add, 2fa-import, 2fa-uri <id>, 2fa-qr <id> <file.png>, 2fa-next <id>, 2fa-copy <id>, 2fa-delete <id>,\n" +
		"  generate [len], strength, passwd, status, reset, lock, help, exit"
)

// lockedCommands run without the master password.
var lockedCommands = map[string]bool{
	"help": true, "unlock": true, "status": true, "reset": true,
	"generate": true, "strength": true, "exit": true, "quit": true,
}

// runREPL reads one command per line from in and dispatches it to a until
// end of input or "exit"/"quit".
//
// Commands that need decrypted data are refused while the vault is locked.
// Errors returned by handlers are printed and the loop goes on.
func runREPL(ctx context.Context, a commander, statusFn func() string, in *bufio.Reader) {
	for {
		printFn(fmt.Sprintf("vk (%s)> ", statusFn()))

		line, err := in.ReadString('\n')
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if err != nil {
				printlnFn()
				return
			}
			continue
		}

		cmd, args := parts[0], parts[1:]

		if !lockedCommands[cmd] && !a.isUnlocked() {
			if _, known := commandNames[cmd]; known {
				printlnFn("Vault is locked. Type 'unlock' first.")
				continue
			}
		}

		var cmdErr error
		switch cmd {
		case "help":
			if a.isUnlocked() {
				printlnFn(helpUnlocked)
			} else {
				printlnFn(helpLocked)
			}

		case "unlock":
			cmdErr = a.Unlock(ctx)
		case "lock":
			cmdErr = a.Lock(ctx)
		case "passwd":
			cmdErr = a.ChangePassword(ctx)
		case "status":
			cmdErr = a.Status(ctx)
		case "reset":
			cmdErr = a.Reset(ctx)

		case "l", "list":
			cmdErr = a.List(ctx)
		case "search":
			cmdErr = a.Search(ctx, strings.Join(args, " "))
		case "add":
			cmdErr = a.Add(ctx)
		case "edit":
			cmdErr = withID(args, "edit <id>", func(id string) error { return a.Edit(ctx, id) })
		case "show":
			cmdErr = withID(args, "show <id>", func(id string) error { return a.Show(ctx, id) })
		case "delete":
			cmdErr = withID(args, "delete <id>", func(id string) error { return a.Delete(ctx, id) })
		case "deleteall":
			cmdErr = a.DeleteAll(ctx)
		case "copy":
			cmdErr = withID(args, "copy <id>", func(id string) error { return a.Copy(ctx, id) })
		case "generate":
			length := ""
			if len(args) > 0 {
				length = args[0]
			}
			cmdErr = a.Generate(ctx, length)
		case "strength":
			cmdErr = a.Strength(ctx)

		case "2fa":
			cmdErr = a.Codes(ctx)
		case "2fa-add":
			cmdErr = a.AddTwoFactor(ctx)
		case "2fa-import":
			cmdErr = a.ImportTwoFactor(ctx)
		case "2fa-uri":
			cmdErr = withID(args, "2fa-uri <id>", func(id string) error { return a.TwoFactorURI(ctx, id) })
		case "2fa-qr":
			if len(args) != 2 {
				printlnFn("Usage: 2fa-qr <id> <file.png>")
				continue
			}
			cmdErr = a.TwoFactorQR(ctx, args[0], args[1])
		case "2fa-next":
			cmdErr = withID(args, "2fa-next <id>", func(id string) error { return a.TwoFactorNext(ctx, id) })
		case "2fa-copy":
			cmdErr = withID(args, "2fa-copy <id>", func(id string) error { return a.TwoFactorCopy(ctx, id) })
		case "2fa-delete":
			cmdErr = withID(args, "2fa-delete <id>", func(id string) error { return a.DeleteTwoFactor(ctx, id) })

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
		if err != nil {
			printlnFn()
			return
		}
	}
}

var commandNames = map[string]struct{}{
	"lock": {}, "passwd": {}, "l": {}, "list": {}, "search": {}, "add": {}, "edit": {}, "show": {},
	"delete": {}, "deleteall": {}, "copy": {}, "2fa": {}, "2fa-add": {}, "2fa-import": {},
	"2fa-uri": {}, "2fa-qr": {}, "2fa-next": {}, "2fa-copy": {}, "2fa-delete": {},
}

func withID(args []string, usage string, fn func(id string) error) error {
	if len(args) != 1 {
		printlnFn("Usage: " + usage)
		return nil
	}
	return fn(args[0])
}
