package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	if a.profile == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", a.profile.Email)
}

func (a *App) report(err error) {
	if err != nil {
		fmt.Println("Error:", err)
	}
}

// Root runs the interactive command loop until EOF or the exit command.
func (a *App) Root(ctx context.Context) {
	fmt.Println("Welcome to Photovault CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("pv %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Available commands: whoami, albums, newalbum, rename <album-id> <title>, rmalbum <album-id>, share <album-id> <on|off>, photos <album-id>, upload <album-id> <file>, rmphoto <photo-id>, logout, exit")
			} else {
				fmt.Println("Available commands: register, login, forgot, reset, exit")
			}
		case "register":
			a.report(a.Register(ctx))
		case "login":
			a.report(a.Login(ctx))
		case "logout":
			a.report(a.Logout(ctx))
		case "whoami":
			a.report(a.Whoami(ctx))
		case "forgot":
			a.report(a.ForgotPassword(ctx))
		case "reset":
			a.report(a.ResetPassword(ctx))
		case "albums":
			a.report(a.ListAlbums(ctx))
		case "newalbum":
			a.report(a.CreateAlbum(ctx))
		case "rename":
			if len(args) < 2 {
				fmt.Println("Usage: rename <album-id> <new title>")
				continue
			}
			a.report(a.RenameAlbum(ctx, args[0], strings.Join(args[1:], " ")))
		case "rmalbum":
			if len(args) != 1 {
				fmt.Println("Usage: rmalbum <album-id>")
				continue
			}
			a.report(a.DeleteAlbum(ctx, args[0]))
		case "share":
			if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
				fmt.Println("Usage: share <album-id> <on|off>")
				continue
			}
			a.report(a.ShareAlbum(ctx, args[0], args[1] == "on"))
		case "photos":
			if len(args) != 1 {
				fmt.Println("Usage: photos <album-id>")
				continue
			}
			a.report(a.ListPhotos(ctx, args[0]))
		case "upload":
			if len(args) != 2 {
				fmt.Println("Usage: upload <album-id> <file>")
				continue
			}
			a.report(a.UploadPhoto(ctx, args[0], args[1]))
		case "rmphoto":
			if len(args) != 1 {
				fmt.Println("Usage: rmphoto <photo-id>")
				continue
			}
			a.report(a.DeletePhoto(ctx, args[0]))
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}
