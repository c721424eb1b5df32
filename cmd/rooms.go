package cmd

import (
	"fmt"
	"strings"

	"github.com/floorgraph/floorgraph/pkg/chunk"
	"github.com/spf13/cobra"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms [keyword]",
	Short: "List room chunks with their furnishings",
	Long: `Prints every room chunk in the store: name, inferred room type,
area, and a sample of contained items. With a keyword, only rooms
containing an item matching the keyword are shown, along with the
matching items. Works directly on the chunk store; no index needed.

Examples:
  floorgraph rooms
  floorgraph rooms sofa
  floorgraph rooms --project "Demo Home"
  floorgraph rooms --room-type living`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRooms,
}

func init() {
	rootCmd.AddCommand(roomsCmd)

	roomsCmd.Flags().String("project", "", "restrict to one project by name")
	roomsCmd.Flags().String("room-type", "", "restrict to one inferred room type")
	roomsCmd.Flags().String("chunks", "chunks", "chunk directory")
}

func runRooms(cmd *cobra.Command, args []string) error {
	projectName, _ := cmd.Flags().GetString("project")
	roomType, _ := cmd.Flags().GetString("room-type")
	chunksDir, _ := cmd.Flags().GetString("chunks")

	var keyword string
	if len(args) == 1 {
		keyword = strings.ToLower(strings.TrimSpace(args[0]))
	}

	store := chunk.NewStore(chunksDir)

	var projectID string
	if projectName != "" {
		p, err := store.FindProjectByName(projectName)
		if err != nil {
			return fmt.Errorf("project %q: %w", projectName, err)
		}
		projectID = p.ID
	}

	rooms, err := store.Rooms()
	if err != nil {
		return err
	}

	shown := 0
	for _, r := range rooms {
		attrs := r.Chunk.Room
		if attrs == nil {
			continue
		}
		if projectID != "" && attrs.ProjectID != projectID {
			continue
		}
		if roomType != "" && !strings.EqualFold(attrs.RoomType, roomType) {
			continue
		}

		items := attrs.Items
		if keyword != "" {
			items = matchingItems(store, attrs.Items, keyword)
			if len(items) == 0 {
				continue
			}
		}
		shown++

		area := fmt.Sprintf("%.0f units²", attrs.AreaUnits2)
		if attrs.AreaM2 != nil {
			area = fmt.Sprintf("%.1f m²", *attrs.AreaM2)
		}
		fmt.Printf("%s — %s, %s, %d items (%s)\n",
			r.Chunk.Name(), orDash(attrs.RoomType), area, len(attrs.Items), r.Rel)

		limit := 5
		if keyword != "" {
			limit = len(items)
		}
		for _, name := range sampleItemNames(store, items, limit) {
			fmt.Printf("    - %s\n", name)
		}
	}

	if shown == 0 {
		fmt.Println("No rooms matched.")
	}
	return nil
}

// matchingItems filters a room's item ids to those whose chunk matches
// the keyword across any flattened attribute value.
func matchingItems(store *chunk.Store, ids []string, keyword string) []string {
	var out []string
	for _, id := range ids {
		c, err := store.Read(chunk.LevelItem, id)
		if err != nil {
			continue
		}
		for _, v := range c.AttrStrings() {
			if strings.Contains(strings.ToLower(v), keyword) {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

// sampleItemNames resolves up to limit item names, skipping dangling ids.
func sampleItemNames(store *chunk.Store, ids []string, limit int) []string {
	var out []string
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		c, err := store.Read(chunk.LevelItem, id)
		if err != nil || c.Item == nil {
			continue
		}
		name := c.Item.Name
		if name == "" {
			name = c.Item.Type
		}
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}
