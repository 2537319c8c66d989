// internal/repository/campaign_repository.go
package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	appErrors "github.com/unclebandit/dripflow-backend/internal/errors"
	"github.com/unclebandit/dripflow-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	ListByOwner(ownerID string) ([]*model.Campaign, error)
	GetByID(id string) (*model.Campaign, error)
	Create(c *model.Campaign) error
	Update(c *model.Campaign) error
	Delete(id string) error
}

type CampaignRepository struct {
	DB *sql.DB
}

// The graph is stored whole: nodes and edges live in jsonb columns and are
// always read and written together with the campaign row.

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now().UTC()

	nodes, edges, err := marshalGraph(c)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO campaigns (id, name, description, nodes, edges, created_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err = r.DB.Exec(query, c.ID, c.Name, c.Description, nodes, edges, c.CreatedBy, c.CreatedAt)
	return err
}

func (r *CampaignRepository) Update(c *model.Campaign) error {
	nodes, edges, err := marshalGraph(c)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	query := `
        UPDATE campaigns
        SET name=$1, description=$2, nodes=$3, edges=$4, updated_at=$5
        WHERE id=$6
    `
	res, err := r.DB.Exec(query, c.Name, c.Description, nodes, edges, now, c.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	c.UpdatedAt = &now
	return nil
}

func (r *CampaignRepository) GetByID(id string) (*model.Campaign, error) {
	query := `
        SELECT id, name, description, nodes, edges, created_by, created_at, updated_at
        FROM campaigns WHERE id=$1
    `
	var c model.Campaign
	var nodes, edges []byte
	err := r.DB.QueryRow(query, id).Scan(
		&c.ID, &c.Name, &c.Description, &nodes, &edges,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	if err := unmarshalGraph(&c, nodes, edges); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) ListByOwner(ownerID string) ([]*model.Campaign, error) {
	query := `
        SELECT id, name, description, nodes, edges, created_by, created_at, updated_at
        FROM campaigns WHERE created_by=$1 ORDER BY created_at DESC
    `
	rows, err := r.DB.Query(query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c := &model.Campaign{}
		var nodes, edges []byte
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &nodes, &edges,
			&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalGraph(c, nodes, edges); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepository) Delete(id string) error {
	res, err := r.DB.Exec(`DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

func marshalGraph(c *model.Campaign) ([]byte, []byte, error) {
	if c.Nodes == nil {
		c.Nodes = []model.Node{}
	}
	if c.Edges == nil {
		c.Edges = []model.Edge{}
	}
	nodes, err := json.Marshal(c.Nodes)
	if err != nil {
		return nil, nil, err
	}
	edges, err := json.Marshal(c.Edges)
	if err != nil {
		return nil, nil, err
	}
	return nodes, edges, nil
}

func unmarshalGraph(c *model.Campaign, nodes, edges []byte) error {
	if len(nodes) > 0 {
		if err := json.Unmarshal(nodes, &c.Nodes); err != nil {
			return err
		}
	}
	if len(edges) > 0 {
		if err := json.Unmarshal(edges, &c.Edges); err != nil {
			return err
		}
	}
	return nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
