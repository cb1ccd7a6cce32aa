package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

type RoomType string

const (
	LectureHall RoomType = "lecture-hall"
	Lab         RoomType = "lab"
)

type Course struct {
	Code              string `json:"code" mapstructure:"code" validate:"required"`
	Name              string `json:"name" mapstructure:"name" validate:"required"`
	Instructor        string `json:"instructor" mapstructure:"instructor" validate:"required"`
	Semester          string `json:"semester,omitempty" mapstructure:"semester"`
	RegistrationCount int    `json:"registrationCount" mapstructure:"registrationCount" validate:"gte=0"`
	Lecture           int    `json:"lecture" mapstructure:"lecture" validate:"gte=0"`
	Tutorial          int    `json:"tutorial" mapstructure:"tutorial" validate:"gte=0"`
	Practical         int    `json:"practical" mapstructure:"practical" validate:"gte=0"`
	SelfStudy         int    `json:"selfStudy" mapstructure:"selfStudy" validate:"gte=0"`
}

type Faculty struct {
	Id          string     `json:"id" mapstructure:"id" validate:"required"`
	Name        string     `json:"name" mapstructure:"name" validate:"required"`
	MaxLoad     int        `json:"maxLoad" mapstructure:"maxLoad" validate:"gte=0"`
	Unavailable []TimeSlot `json:"unavailable,omitempty" mapstructure:"unavailable"`
}

type Room struct {
	Id       string   `json:"id" mapstructure:"id" validate:"required"`
	Capacity int      `json:"capacity" mapstructure:"capacity" validate:"gte=0"`
	Type     RoomType `json:"type" mapstructure:"type" validate:"oneof=lecture-hall lab"`
}

// RawModelInput is the record snapshot as handed over by the persistence layer, before normalization
type RawModelInput struct {
	Grid    *GridConfig `json:"grid,omitempty" mapstructure:"grid"`
	Courses []Course    `json:"courses" mapstructure:"courses"`
	Faculty []Faculty   `json:"faculty" mapstructure:"faculty"`
	Rooms   []Room      `json:"rooms,omitempty" mapstructure:"rooms"`
}

type ModelInput struct {
	Grid    Grid
	Courses []Course  // Sorted by code
	Faculty []Faculty // Sorted by id
	Rooms   []Room    // Sorted by capacity and then by id (i.e. best-fit order)

	courses map[string]int
	faculty map[string]int
	rooms   map[string]int
}

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// The original course form used single letters for the weekly requirement counts
var courseKeyAliases = map[string]string{
	"L":     "lecture",
	"T":     "tutorial",
	"P":     "practical",
	"S":     "selfStudy",
	"count": "registrationCount",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

func InputFromJson(file string) (ModelInput, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return ModelInput{}, err
	}
	return InputFromBytes(bytes, FormatJSON)
}

func InputFromYaml(file string) (ModelInput, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return ModelInput{}, err
	}
	return InputFromBytes(bytes, FormatYAML)
}

// Chooses the format from the file extension (".yaml" and ".yml" are YAML, anything else is JSON)
func InputFromFile(file string) (ModelInput, error) {
	lower := strings.ToLower(file)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return InputFromYaml(file)
	}
	return InputFromJson(file)
}

func InputFromBytes(data []byte, format Format) (ModelInput, error) {
	rawInput, err := DecodeRawInput(data, format)
	if err != nil {
		return ModelInput{}, err
	}
	return ProcessRawInput(rawInput)
}

func DecodeRawInput(data []byte, format Format) (RawModelInput, error) {
	var inputMap map[string]any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &inputMap); err != nil {
			return RawModelInput{}, fmt.Errorf("cannot parse json input: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &inputMap); err != nil {
			return RawModelInput{}, fmt.Errorf("cannot parse yaml input: %w", err)
		}
	default:
		return RawModelInput{}, fmt.Errorf("unsupported input format %q", format)
	}
	normalizeCourseKeys(inputMap)

	var rawInput RawModelInput
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.TextUnmarshallerHookFunc(),
		WeaklyTypedInput: true,
		Result:           &rawInput,
	})
	if err != nil {
		return RawModelInput{}, err
	}
	if err := decoder.Decode(inputMap); err != nil {
		return RawModelInput{}, fmt.Errorf("cannot decode input: %w", err)
	}
	return rawInput, nil
}

func normalizeCourseKeys(inputMap map[string]any) {
	courses, ok := inputMap["courses"].([]any)
	if !ok {
		return
	}
	for _, course := range courses {
		fields, ok := course.(map[string]any)
		if !ok {
			continue
		}
		for alias, key := range courseKeyAliases {
			value, ok := fields[alias]
			if !ok {
				continue
			}
			if _, exists := fields[key]; !exists {
				fields[key] = value
			}
			delete(fields, alias)
		}
	}
}

func ProcessRawInput(rawInput RawModelInput) (ModelInput, error) {
	//** Manage grid
	gridConfig := DefaultGridConfig()
	if rawInput.Grid != nil {
		defaultDays := gridConfig.Days
		gridConfig = *rawInput.Grid
		if len(gridConfig.Days) == 0 {
			gridConfig.Days = defaultDays
		}
	}
	grid, err := BuildGrid(gridConfig)
	if err != nil {
		return ModelInput{}, err
	}

	input := ModelInput{
		Grid:    grid,
		courses: make(map[string]int),
		faculty: make(map[string]int),
		rooms:   make(map[string]int),
	}

	//** Manage faculty
	faculty := make([]Faculty, 0, len(rawInput.Faculty))
	for _, member := range rawInput.Faculty {
		member.Id = normalizeKey(member.Id)
		member.Name = strings.TrimSpace(member.Name)
		if err := validate.Struct(member); err != nil {
			return ModelInput{}, invalid(ErrInvalidFaculty, member.Id, "%v", describeValidation(err))
		}
		if lo.ContainsBy(faculty, func(other Faculty) bool { return other.Id == member.Id }) {
			return ModelInput{}, invalid(ErrInvalidFaculty, member.Id, "duplicate faculty id")
		}

		// Make sure every unavailable slot lies inside the grid
		if slot, ok := lo.Find(member.Unavailable, func(slot TimeSlot) bool { return !grid.Contains(slot) }); ok {
			return ModelInput{}, invalid(ErrInvalidFaculty, member.Id, "unavailable slot %v lies outside the grid", slot)
		}
		member.Unavailable = lo.Uniq(member.Unavailable)
		slices.SortFunc(member.Unavailable, compareTimeSlots)

		faculty = append(faculty, member)
	}
	slices.SortFunc(faculty, func(a, b Faculty) int { return strings.Compare(a.Id, b.Id) })

	//** Manage rooms
	rooms := make([]Room, 0, len(rawInput.Rooms))
	for _, room := range rawInput.Rooms {
		room.Id = normalizeKey(room.Id)
		if room.Type == "" {
			room.Type = LectureHall
		}
		if err := validate.Struct(room); err != nil {
			return ModelInput{}, invalid(ErrInvalidRoom, room.Id, "%v", describeValidation(err))
		}
		if lo.ContainsBy(rooms, func(other Room) bool { return other.Id == room.Id }) {
			return ModelInput{}, invalid(ErrInvalidRoom, room.Id, "duplicate room id")
		}
		rooms = append(rooms, room)
	}
	slices.SortFunc(rooms, func(a, b Room) int {
		if a.Capacity != b.Capacity {
			return a.Capacity - b.Capacity
		}
		return strings.Compare(a.Id, b.Id)
	})

	//** Manage courses
	courses := make([]Course, 0, len(rawInput.Courses))
	for _, course := range rawInput.Courses {
		course.Code = normalizeKey(course.Code)
		course.Name = strings.TrimSpace(course.Name)
		course.Instructor = normalizeKey(course.Instructor)
		course.Semester = strings.TrimSpace(course.Semester)
		if err := validate.Struct(course); err != nil {
			return ModelInput{}, invalid(ErrInvalidCourse, course.Code, "%v", describeValidation(err))
		}
		if lo.ContainsBy(courses, func(other Course) bool { return other.Code == course.Code }) {
			return ModelInput{}, invalid(ErrInvalidCourse, course.Code, "duplicate course code")
		}
		if course.Lecture+course.Tutorial+course.Practical+course.SelfStudy == 0 {
			return ModelInput{}, invalid(ErrInvalidCourse, course.Code, "at least one weekly requirement count must be positive")
		}
		if !lo.ContainsBy(faculty, func(member Faculty) bool { return member.Id == course.Instructor }) {
			return ModelInput{}, invalid(ErrInvalidCourse, course.Code, "instructor %q is not a known faculty member", course.Instructor)
		}
		courses = append(courses, course)
	}
	slices.SortFunc(courses, func(a, b Course) int { return strings.Compare(a.Code, b.Code) })

	input.Courses = courses
	input.Faculty = faculty
	input.Rooms = rooms
	for i, course := range courses {
		input.courses[course.Code] = i
	}
	for i, member := range faculty {
		input.faculty[member.Id] = i
	}
	for i, room := range rooms {
		input.rooms[room.Id] = i
	}
	return input, nil
}

func (input ModelInput) Course(code string) (Course, bool) {
	if input.courses == nil {
		return lo.Find(input.Courses, func(course Course) bool { return course.Code == code })
	}
	i, ok := input.courses[code]
	if !ok {
		return Course{}, false
	}
	return input.Courses[i], true
}

func (input ModelInput) FacultyMember(id string) (Faculty, bool) {
	if input.faculty == nil {
		return lo.Find(input.Faculty, func(member Faculty) bool { return member.Id == id })
	}
	i, ok := input.faculty[id]
	if !ok {
		return Faculty{}, false
	}
	return input.Faculty[i], true
}

func (input ModelInput) Room(id string) (Room, bool) {
	if input.rooms == nil {
		return lo.Find(input.Rooms, func(room Room) bool { return room.Id == id })
	}
	i, ok := input.rooms[id]
	if !ok {
		return Room{}, false
	}
	return input.Rooms[i], true
}

// Rooms are only modeled when the snapshot carries at least one room
func (input ModelInput) RoomsModeled() bool {
	return len(input.Rooms) > 0
}

func normalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

func compareTimeSlots(a, b TimeSlot) int {
	if a.Day != b.Day {
		return int(a.Day) - int(b.Day)
	}
	return a.Slot - b.Slot
}

func describeValidation(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}
	return strings.Join(lo.Map(validationErrors, func(fieldError validator.FieldError, _ int) string {
		rule := fieldError.Tag()
		if fieldError.Param() != "" {
			rule += "=" + fieldError.Param()
		}
		return fmt.Sprintf("%v must satisfy %v (got %v)", fieldError.Field(), rule, fieldError.Value())
	}), "; ")
}
