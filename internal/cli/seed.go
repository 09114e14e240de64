package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

// SeedFile is the YAML layout of a room catalog seed. Prices are in
// major currency units.
type SeedFile struct {
	Rooms []SeedRoom `yaml:"rooms"`
}

// SeedRoom is one room type in a seed file.
type SeedRoom struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Price       float64          `yaml:"price"`
	Capacity    int              `yaml:"capacity"`
	Units       int              `yaml:"units"`
	Lunch       float64          `yaml:"lunch"`
	Dinner      float64          `yaml:"dinner"`
	Amenities   *model.Amenities `yaml:"amenities"`
	Images      []string         `yaml:"images"`
}

// Input converts the seed entry into a room type input.
func (r SeedRoom) Input() service.RoomTypeInput {
	return service.RoomTypeInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       model.FromMajor(r.Price),
		Capacity:    r.Capacity,
		TotalUnits:  r.Units,
		LunchPrice:  model.FromMajor(r.Lunch),
		DinnerPrice: model.FromMajor(r.Dinner),
		Amenities:   r.Amenities,
		Images:      r.Images,
	}
}

// LoadSeed parses a seed file, rejecting unknown keys.
func LoadSeed(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed SeedFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(seed.Rooms) == 0 {
		return nil, fmt.Errorf("seed file %s lists no rooms", path)
	}
	return &seed, nil
}

// Seed adds every room of the seed through rooms. Names that already
// exist gain the listed units.
func Seed(ctx context.Context, rooms *service.RoomService, seed *SeedFile) (created, merged int, err error) {
	for i, r := range seed.Rooms {
		_, isNew, err := rooms.Create(ctx, r.Input())
		if err != nil {
			return created, merged, fmt.Errorf("room %d (%s): %w", i+1, r.Name, err)
		}
		if isNew {
			created++
		} else {
			merged++
		}
	}
	return created, merged, nil
}

// NewSeedCommand returns the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:     "seed",
		Short:   "Load room types from a YAML file",
		Example: `  hotel seed --file rooms.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := LoadSeed(file)
			if err != nil {
				return err
			}
			rt, err := openRuntime(cmd.Context(), rootOpts, true)
			if err != nil {
				return err
			}
			defer rt.Close()
			rooms := service.NewRoomService(rt.db, service.Options{Logger: rt.log})
			created, merged, err := Seed(cmd.Context(), rooms, seed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d room types created, %d merged\n", created, merged)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML seed file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
