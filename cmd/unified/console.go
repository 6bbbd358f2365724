package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"unified-chat/auth"
	"unified-chat/domain"
	"unified-chat/domain/mimetypes"
	"unified-chat/export"
	"unified-chat/services"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

const prompt = "> "

// Console is the line-oriented presentation layer. It resolves the caller from
// the session token and hands raw ids to the services.
type Console struct {
	in        io.Reader
	out       io.Writer
	chat      *services.ChatService
	auth      services.IAuthService
	exportDir string

	user    domain.User
	token   services.Token
	current domain.ChannelID
}

func NewConsole(in io.Reader, out io.Writer, chat *services.ChatService, authService services.IAuthService, exportDir string) *Console {
	return &Console{in: in, out: out, chat: chat, auth: authService, exportDir: exportDir}
}

type command struct {
	usage   string
	handler func(ctx context.Context, args []string, rest string)
}

// Run reads commands until "quit", end of input or ctx cancellation.
func (c *Console) Run(ctx context.Context) error {
	c.info("Welcome to Unified Chat. Type 'help' to list commands.")
	scanner := bufio.NewScanner(c.in)
	fmt.Fprint(c.out, prompt)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "quit" || line == "exit" {
			c.logout()
			return nil
		}
		if line != "" {
			c.dispatch(ctx, line)
		}
		fmt.Fprint(c.out, prompt)
	}
	c.logout()
	return scanner.Err()
}

func (c *Console) dispatch(ctx context.Context, line string) {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	if cmd, ok := c.publicCommands()[name]; ok {
		cmd.handler(ctx, args, rest)
		return
	}
	cmd, ok := c.sessionCommands()[name]
	if !ok {
		c.fail("Unknown command %q, type 'help'", name)
		return
	}
	if !c.authenticated() {
		c.fail("Please login first")
		return
	}
	cmd.handler(ctx, args, rest)
}

func (c *Console) publicCommands() map[string]command {
	return map[string]command{
		"help":     {"help", c.help},
		"register": {"register <username> <password> [full name]", c.register},
		"login":    {"login <username> <password>", c.login},
	}
}

func (c *Console) sessionCommands() map[string]command {
	return map[string]command{
		"logout":    {"logout", func(context.Context, []string, string) { c.logout() }},
		"whoami":    {"whoami", c.whoami},
		"profile":   {"profile <field>=<value>... (fullname, email, year, major, school)", c.profile},
		"users":     {"users", c.users},
		"channels":  {"channels", c.channels},
		"available": {"available", c.available},
		"dm":        {"dm <username>", c.directMessage},
		"group":     {"group <max> <public|private> <name>", c.group},
		"course":    {"course <code> <semester> <year> <name>", c.course},
		"join":      {"join <channel>", c.join},
		"invite":    {"invite <channel> <username>", c.invite},
		"leave":     {"leave <channel>", c.leave},
		"open":      {"open <channel>", c.open},
		"say":       {"say <text>", c.say},
		"file":      {"file <path>", c.file},
		"announce":  {"announce <category> <important|normal> <text>", c.announce},
		"unread":    {"unread", c.unread},
		"search":    {"search <keyword>", c.search},
		"find":      {"find <terms> [--channel <id>] [--limit <n>]", c.find},
		"export":    {"export [txt|pdf]", c.export},
		"students":  {"students <on|off>", c.students},
		"close":     {"close", c.closeChannel},
	}
}

func (c *Console) help(context.Context, []string, string) {
	table := c.table("Command", "Usage")
	for _, commands := range []map[string]command{c.publicCommands(), c.sessionCommands()} {
		for _, name := range slices.Sorted(maps.Keys(commands)) {
			table.Append([]string{name, commands[name].usage})
		}
	}
	table.Render()
}

func (c *Console) register(_ context.Context, args []string, _ string) {
	if len(args) < 2 {
		c.fail("Usage: register <username> <password> [full name]")
		return
	}
	user, token, err := c.auth.Register(auth.RegisterRequest{
		Username: args[0],
		Password: args[1],
		FullName: strings.Join(args[2:], " "),
	})
	if err != nil {
		c.fail("Registration failed: %v", err)
		return
	}
	c.startSession(user, token)
}

func (c *Console) login(_ context.Context, args []string, _ string) {
	if len(args) != 2 {
		c.fail("Usage: login <username> <password>")
		return
	}
	user, token, err := c.auth.Login(args[0], args[1])
	if err != nil {
		c.fail("Login failed: %v", err)
		return
	}
	c.startSession(user, token)
}

func (c *Console) startSession(user domain.User, token services.Token) {
	c.user, c.token, c.current = user, token, ""
	c.ok("Signed in as %s", user.DisplayName())
	if unread := c.chat.TotalUnread(user.ID); unread > 0 {
		c.info("You have %d unread messages", unread)
	}
}

func (c *Console) authenticated() bool {
	if c.token == "" {
		return false
	}
	if _, err := c.auth.Authenticate(c.token); err != nil {
		c.fail("Session expired: %v", err)
		c.user, c.token, c.current = domain.User{}, "", ""
		return false
	}
	return true
}

func (c *Console) logout() {
	if c.token == "" {
		return
	}
	if err := c.auth.Logout(c.user.ID); err != nil {
		c.fail("Logout failed: %v", err)
	}
	c.ok("Goodbye %s", c.user.DisplayName())
	c.user, c.token, c.current = domain.User{}, "", ""
}

func (c *Console) whoami(context.Context, []string, string) {
	u := c.user
	table := c.table("Field", "Value")
	table.Append([]string{"Username", u.Username})
	table.Append([]string{"Full name", u.FullName})
	table.Append([]string{"Email", u.Email})
	table.Append([]string{"Graduation", u.YearOfGraduation})
	table.Append([]string{"Major", u.Major})
	table.Append([]string{"School", u.School})
	table.Render()
}

func (c *Console) profile(_ context.Context, args []string, _ string) {
	req := auth.ProfileRequest{
		FullName:         c.user.FullName,
		Email:            c.user.Email,
		YearOfGraduation: c.user.YearOfGraduation,
		Major:            c.user.Major,
		School:           c.user.School,
	}
	for _, arg := range args {
		key, value, _ := strings.Cut(arg, "=")
		// Underscores stand for spaces in free-text fields
		text := strings.ReplaceAll(value, "_", " ")
		switch key {
		case "fullname":
			req.FullName = text
		case "email":
			req.Email = value
		case "year":
			req.YearOfGraduation = value
		case "major":
			req.Major = text
		case "school":
			req.School = text
		default:
			c.fail("Unknown profile field %q", key)
			return
		}
	}
	user, err := c.auth.UpdateProfile(c.user.ID, req)
	if err != nil {
		c.fail("Profile update failed: %v", err)
		return
	}
	c.user = user
	c.ok("Profile updated")
}

func (c *Console) users(context.Context, []string, string) {
	users, err := c.auth.ListUsers()
	if err != nil {
		c.fail("Cannot list users: %v", err)
		return
	}
	table := c.table("Username", "Name", "Status")
	for _, u := range users {
		status := "offline"
		if u.Online {
			status = "online"
		}
		table.Append([]string{u.Username, u.DisplayName(), status})
	}
	table.Render()
}

func (c *Console) channels(context.Context, []string, string) {
	c.channelTable(c.chat.UserChannels(c.user.ID))
}

func (c *Console) available(context.Context, []string, string) {
	c.channelTable(c.chat.AvailableChannels(c.user.ID))
}

func (c *Console) channelTable(channels []*domain.Channel) {
	table := c.table("ID", "Name", "Type", "Members", "Unread", "Active")
	for _, ch := range channels {
		table.Append([]string{
			string(ch.ID()),
			c.chat.ChannelDisplayName(c.user.ID, ch),
			string(ch.Type()),
			strconv.Itoa(ch.ParticipantCount()),
			strconv.Itoa(c.chat.UnreadCount(c.user.ID, ch.ID())),
			strconv.FormatBool(ch.IsActive()),
		})
	}
	table.Render()
}

func (c *Console) directMessage(ctx context.Context, args []string, _ string) {
	if len(args) != 1 {
		c.fail("Usage: dm <username>")
		return
	}
	other, err := c.auth.FindByUsername(args[0])
	if err != nil {
		c.fail("Unknown user %s", args[0])
		return
	}
	channel, err := c.chat.CreateDirectMessage(ctx, c.user.ID, other.ID)
	if err != nil {
		c.fail("Cannot open conversation: %v", err)
		return
	}
	c.switchTo(ctx, channel)
}

func (c *Console) group(ctx context.Context, args []string, _ string) {
	if len(args) < 3 {
		c.fail("Usage: group <max> <public|private> <name>")
		return
	}
	limit, err := strconv.Atoi(args[0])
	if err != nil {
		c.fail("Invalid capacity %q", args[0])
		return
	}
	channel, err := c.chat.CreateGroupChat(ctx, c.user.ID, strings.Join(args[2:], " "), "", limit, args[1] == "private")
	if err != nil {
		c.fail("Cannot create group: %v", err)
		return
	}
	c.switchTo(ctx, channel)
}

func (c *Console) course(ctx context.Context, args []string, _ string) {
	if len(args) < 4 {
		c.fail("Usage: course <code> <semester> <year> <name>")
		return
	}
	year, err := strconv.Atoi(args[2])
	if err != nil {
		c.fail("Invalid year %q", args[2])
		return
	}
	channel, err := c.chat.CreateCourseChannel(ctx, c.user.ID, domain.Course{
		CourseID: strings.ToLower(args[0]) + "-" + strings.ToLower(args[1]) + "-" + args[2],
		Code:     args[0],
		Name:     strings.Join(args[3:], " "),
		Semester: args[1],
		Year:     year,
	})
	if err != nil {
		c.fail("Cannot create course: %v", err)
		return
	}
	c.switchTo(ctx, channel)
}

func (c *Console) join(ctx context.Context, args []string, _ string) {
	if len(args) != 1 {
		c.fail("Usage: join <channel>")
		return
	}
	if !c.chat.JoinChannel(ctx, c.user.ID, domain.ChannelID(args[0])) {
		c.fail("Cannot join %s", args[0])
		return
	}
	if channel, ok := c.chat.Channel(domain.ChannelID(args[0])); ok {
		c.switchTo(ctx, channel)
	}
}

func (c *Console) invite(ctx context.Context, args []string, _ string) {
	if len(args) != 2 {
		c.fail("Usage: invite <channel> <username>")
		return
	}
	other, err := c.auth.FindByUsername(args[1])
	if err != nil {
		c.fail("Unknown user %s", args[1])
		return
	}
	if !c.chat.AddMember(ctx, c.user.ID, other.ID, domain.ChannelID(args[0])) {
		c.fail("Cannot add %s to %s", args[1], args[0])
		return
	}
	c.ok("%s added", other.DisplayName())
}

func (c *Console) leave(ctx context.Context, args []string, _ string) {
	if len(args) != 1 {
		c.fail("Usage: leave <channel>")
		return
	}
	id := domain.ChannelID(args[0])
	if !c.chat.LeaveChannel(ctx, c.user.ID, id) {
		c.fail("Cannot leave %s", args[0])
		return
	}
	if c.current == id {
		c.current = ""
	}
	c.ok("Left %s", args[0])
}

func (c *Console) open(ctx context.Context, args []string, _ string) {
	if len(args) != 1 {
		c.fail("Usage: open <channel>")
		return
	}
	channel, ok := c.chat.Channel(domain.ChannelID(args[0]))
	if !ok || !channel.IsParticipant(c.user.ID) {
		c.fail("No such channel %s", args[0])
		return
	}
	c.switchTo(ctx, channel)
}

// switchTo prints the history of channel and marks it read.
func (c *Console) switchTo(ctx context.Context, channel *domain.Channel) {
	c.current = channel.ID()
	title := color.New(color.FgCyan, color.OpBold).Render("# " + c.chat.ChannelDisplayName(c.user.ID, channel))
	fmt.Fprintln(c.out, title)
	for _, m := range c.chat.Messages(c.user.ID, channel.ID()) {
		c.printMessage(m)
	}
	c.chat.MarkAllRead(ctx, c.user.ID, channel.ID())
	if !c.chat.CanSendIn(c.user.ID, channel.ID()) {
		c.info("Read only")
	}
}

func (c *Console) printMessage(m domain.Message) {
	sender := c.auth.DisplayName(m.SenderID)
	if m.SenderID == c.user.ID {
		sender = "me"
	}
	stamp := color.Gray.Sprint(m.CreatedAt.Local().Format("15:04"))
	content := m.FormattedContent()
	if m.Type == domain.AnnouncementMessage {
		content = color.Yellow.Sprint(content)
	}
	fmt.Fprintf(c.out, "%s %s: %s\n", stamp, color.Bold.Sprint(sender), content)
}

func (c *Console) currentChannel() (domain.ChannelID, bool) {
	if c.current == "" {
		c.fail("Open a channel first")
		return "", false
	}
	return c.current, true
}

func (c *Console) say(ctx context.Context, _ []string, rest string) {
	id, ok := c.currentChannel()
	if !ok {
		return
	}
	if !c.chat.SendText(ctx, c.user.ID, id, rest) {
		c.fail("Message not sent")
	}
}

func (c *Console) file(ctx context.Context, _ []string, rest string) {
	id, ok := c.currentChannel()
	if !ok {
		return
	}
	path, err := filepath.Abs(rest)
	if err != nil {
		c.fail("Invalid path: %v", err)
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		c.fail("Not a file: %s", rest)
		return
	}
	mime, err := mimetypes.Detect(path)
	if err != nil {
		c.fail("Cannot read %s: %v", rest, err)
		return
	}
	file := domain.FileAttachment{
		Name:     info.Name(),
		URL:      "file://" + filepath.ToSlash(path),
		Size:     info.Size(),
		MimeType: string(mime),
	}
	if !c.chat.SendFile(ctx, c.user.ID, id, file) {
		c.fail("File not sent")
	}
}

func (c *Console) announce(ctx context.Context, args []string, _ string) {
	id, ok := c.currentChannel()
	if !ok {
		return
	}
	if len(args) < 3 {
		c.fail("Usage: announce <category> <important|normal> <text>")
		return
	}
	category := domain.ParseAnnouncementCategory(args[0])
	if !c.chat.SendAnnouncement(ctx, c.user.ID, id, strings.Join(args[2:], " "), args[1] == "important", category) {
		c.fail("Announcements are for course instructors")
	}
}

func (c *Console) unread(context.Context, []string, string) {
	for _, channel := range c.chat.UserChannels(c.user.ID) {
		messages := c.chat.UnreadMessages(c.user.ID, channel.ID())
		if len(messages) == 0 {
			continue
		}
		fmt.Fprintf(c.out, "%s (%d)\n", c.chat.ChannelDisplayName(c.user.ID, channel), len(messages))
		for _, m := range messages {
			c.printMessage(m)
		}
	}
}

func (c *Console) search(_ context.Context, _ []string, rest string) {
	found := c.chat.SearchMessages(c.user.ID, rest)
	if len(found) == 0 {
		c.info("No message matches %q", rest)
		return
	}
	for _, m := range found {
		fmt.Fprintf(c.out, "[%s] ", m.ChannelID)
		c.printMessage(m)
	}
}

func (c *Console) find(ctx context.Context, _ []string, rest string) {
	hits, err := c.chat.SearchHistory(ctx, c.user.ID, rest)
	if err != nil {
		c.fail("Search failed: %v", err)
		return
	}
	table := c.table("Channel", "Sender", "Lang", "Score", "Content")
	for _, h := range hits {
		table.Append([]string{
			string(h.ChannelID),
			c.auth.DisplayName(h.SenderID),
			h.Lang,
			strconv.FormatFloat(h.Score, 'f', 2, 64),
			h.Content,
		})
	}
	table.Render()
}

func (c *Console) export(_ context.Context, args []string, _ string) {
	id, ok := c.currentChannel()
	if !ok {
		return
	}
	format, err := export.ParseFormat(strings.Join(args, ""))
	if err != nil {
		c.fail("%v", err)
		return
	}
	channel, ok := c.chat.Channel(id)
	if !ok || !channel.IsParticipant(c.user.ID) {
		c.fail("No such channel %s", id)
		return
	}
	path, err := export.Write(c.exportDir, channel, format)
	if err != nil {
		c.fail("Export failed: %v", err)
		return
	}
	c.ok("History written to %s", path)
}

func (c *Console) students(ctx context.Context, args []string, _ string) {
	id, ok := c.currentChannel()
	if !ok {
		return
	}
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		c.fail("Usage: students <on|off>")
		return
	}
	if !c.chat.SetAllowStudentMessages(ctx, c.user.ID, id, args[0] == "on") {
		c.fail("Only the instructor can change this setting")
		return
	}
	c.ok("Student messages %s", args[0])
}

func (c *Console) closeChannel(ctx context.Context, _ []string, _ string) {
	id, ok := c.currentChannel()
	if !ok {
		return
	}
	if !c.chat.DeactivateChannel(ctx, c.user.ID, id) {
		c.fail("Only the creator can close this channel")
		return
	}
	c.ok("Channel closed")
}

func (c *Console) table(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	return table
}

func (c *Console) ok(format string, args ...any) {
	fmt.Fprintln(c.out, color.Green.Sprintf(format, args...))
}

func (c *Console) info(format string, args ...any) {
	fmt.Fprintln(c.out, color.Cyan.Sprintf(format, args...))
}

func (c *Console) fail(format string, args ...any) {
	fmt.Fprintln(c.out, color.Red.Sprintf(format, args...))
}
