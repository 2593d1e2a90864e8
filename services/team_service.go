package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	config "github.com/districtone/backend/configs"
	"github.com/districtone/backend/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const tbaBaseURL = "https://www.thebluealliance.com/api/v3"

const avatarFolder = "team_avatars"

type tbaTeam struct {
	TeamNumber int    `json:"team_number"`
	Nickname   string `json:"nickname"`
	City       string `json:"city"`
	Country    string `json:"country"`
}

type tbaMedia struct {
	Type    string `json:"type"`
	Details struct {
		Base64Image string `json:"base64Image"`
	} `json:"details"`
}

// TeamService keeps the FRC roster mirrored from The Blue Alliance and
// serves the team-list and avatar reads.
type TeamService struct {
	db      *gorm.DB
	authKey string
	baseURL string
	client  *http.Client
	cld     *cloudinary.Cloudinary
}

func NewTeamService(db *gorm.DB) *TeamService {
	s := &TeamService{
		db:      db,
		authKey: config.Config("TBA_AUTH_KEY"),
		baseURL: tbaBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}

	cloudinaryURL := config.Config("CLOUDINARY_URL")
	if cloudinaryURL == "" {
		log.Println("⚠️ Cloudinary not configured, avatars will be stored inline")
		return s
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		log.Printf("⚠️ Failed to initialize Cloudinary, avatars will be stored inline: %v", err)
		return s
	}
	s.cld = cld
	return s
}

// ListTeams returns the roster for the team-list screen.
func (s *TeamService) ListTeams(ctx context.Context) ([]models.Team, error) {
	teams := []models.Team{}
	err := s.db.WithContext(ctx).Order("team_number").Find(&teams).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

// AvatarsForTeams maps each requested team number to its avatar URL. Teams
// without a synced avatar are simply absent from the result.
func (s *TeamService) AvatarsForTeams(ctx context.Context, teamNumbers []int) (map[int]string, error) {
	teams := []models.Team{}
	err := s.db.WithContext(ctx).
		Where("team_number IN ? AND avatar_url <> ''", teamNumbers).
		Find(&teams).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch avatars: %w", err)
	}

	avatars := make(map[int]string, len(teams))
	for _, t := range teams {
		avatars[t.TeamNumber] = t.AvatarURL
	}
	return avatars, nil
}

func (s *TeamService) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create TBA request: %v", err)
	}
	req.Header.Set("X-TBA-Auth-Key", s.authKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call TBA: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read TBA response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("TBA API error: Status %d, Body: %s", resp.StatusCode, string(body))
		return fmt.Errorf("TBA returned non-200 status: %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal TBA response: %v", err)
	}
	return nil
}

// SyncRoster pages through the full team list and upserts each row, keeping
// the raw payload alongside the columns we query.
func (s *TeamService) SyncRoster(ctx context.Context) error {
	total := 0
	for page := 0; ; page++ {
		var teams []tbaTeam
		if err := s.get(ctx, fmt.Sprintf("/teams/%d", page), &teams); err != nil {
			return err
		}
		if len(teams) == 0 {
			break
		}

		for _, t := range teams {
			raw, err := json.Marshal(t)
			if err != nil {
				return fmt.Errorf("failed to marshal team payload: %v", err)
			}
			row := models.Team{
				TeamNumber: t.TeamNumber,
				Nickname:   t.Nickname,
				City:       t.City,
				Country:    t.Country,
				Raw:        datatypes.JSON(raw),
			}
			err = s.db.WithContext(ctx).
				Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "team_number"}},
					DoUpdates: clause.AssignmentColumns([]string{"nickname", "city", "country", "raw", "updated_at"}),
				}).
				Create(&row).Error
			if err != nil {
				return fmt.Errorf("failed to upsert team %d: %w", t.TeamNumber, err)
			}
		}
		total += len(teams)
	}

	log.Printf("✅ Synced %d teams from The Blue Alliance", total)
	return nil
}

// SyncAvatars refreshes avatars for teams somebody has liked; syncing all
// eight thousand rosters' media every run would burn the TBA quota for
// images nobody looks at.
func (s *TeamService) SyncAvatars(ctx context.Context, year int) error {
	teamNumbers := []int{}
	err := s.db.WithContext(ctx).Model(&models.TeamLike{}).
		Distinct("team_number").
		Order("team_number").
		Pluck("team_number", &teamNumbers).Error
	if err != nil {
		return fmt.Errorf("failed to list liked teams: %w", err)
	}

	synced := 0
	for _, number := range teamNumbers {
		var media []tbaMedia
		if err := s.get(ctx, fmt.Sprintf("/team/frc%d/media/%d", number, year), &media); err != nil {
			log.Printf("🔥 Failed to fetch media for team %d: %v", number, err)
			continue
		}

		for _, m := range media {
			if m.Type != "avatar" || m.Details.Base64Image == "" {
				continue
			}
			url, err := s.storeAvatar(ctx, number, m.Details.Base64Image)
			if err != nil {
				log.Printf("🔥 Failed to store avatar for team %d: %v", number, err)
				break
			}
			err = s.db.WithContext(ctx).Model(&models.Team{}).
				Where("team_number = ?", number).
				Update("avatar_url", url).Error
			if err != nil {
				return fmt.Errorf("failed to save avatar URL for team %d: %w", number, err)
			}
			synced++
			break
		}
	}

	log.Printf("✅ Synced %d team avatars", synced)
	return nil
}

// storeAvatar pushes a base64 avatar to Cloudinary and returns its serving
// URL. Without Cloudinary the data URI itself is stored.
func (s *TeamService) storeAvatar(ctx context.Context, teamNumber int, base64Image string) (string, error) {
	dataURI := "data:image/png;base64," + base64Image
	if s.cld == nil {
		return dataURI, nil
	}

	res, err := s.cld.Upload.Upload(ctx, dataURI, uploader.UploadParams{
		Folder:    avatarFolder,
		PublicID:  fmt.Sprintf("frc%d", teamNumber),
		Overwrite: api.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload failed: %v", err)
	}
	return res.SecureURL, nil
}
