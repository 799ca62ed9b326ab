package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// BrandRef is a video's brand: the backend sends either the bare id or a
// populated brand object.
type BrandRef struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

func (b *BrandRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = BrandRef{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*b = BrandRef{ID: id}
		return nil
	}
	type plain BrandRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = BrandRef(p)
	return nil
}

type Video struct {
	ID          string     `json:"_id"`
	Filename    string     `json:"filename"`
	Description string     `json:"description,omitempty"`
	Brand       BrandRef   `json:"brand"`
	FileURL     string     `json:"fileUrl,omitempty"`
	FileSize    int64      `json:"fileSize,omitempty"`
	ExpiryDate  *time.Time `json:"expiryDate,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

func (v Video) Key() string { return v.ID }

// VideoPatch overwrites the non-nil fields. ClearExpiry is set when the
// server sent an explicit null expiryDate.
type VideoPatch struct {
	Filename    *string    `json:"filename"`
	Description *string    `json:"description"`
	Brand       *BrandRef  `json:"brand"`
	FileURL     *string    `json:"fileUrl"`
	FileSize    *int64     `json:"fileSize"`
	ExpiryDate  *time.Time `json:"expiryDate"`
	ClearExpiry bool       `json:"-"`
}

func (p *VideoPatch) UnmarshalJSON(data []byte) error {
	type plain VideoPatch
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	if raw, ok := keys["expiryDate"]; ok && isNullJSON(raw) {
		p.ClearExpiry = true
	}
	return nil
}

// VideoReply is a video record plus the patch of the fields it carried.
type VideoReply struct {
	Video
	Patch VideoPatch `json:"-"`
}

func (r *VideoReply) UnmarshalJSON(data []byte) error {
	return decodeReply(data, &r.Video, &r.Patch)
}

func (p VideoPatch) Apply(v *Video) {
	if p.Filename != nil {
		v.Filename = *p.Filename
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	if p.Brand != nil {
		v.Brand = *p.Brand
	}
	if p.FileURL != nil {
		v.FileURL = *p.FileURL
	}
	if p.FileSize != nil {
		v.FileSize = *p.FileSize
	}
	switch {
	case p.ExpiryDate != nil:
		v.ExpiryDate = p.ExpiryDate
	case p.ClearExpiry:
		v.ExpiryDate = nil
	}
}

type Brand struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email,omitempty"`
	Address     string `json:"address"`
	Description string `json:"description,omitempty"`
	Logo        string `json:"logo,omitempty"`
	VideoCount  *int   `json:"videoCount,omitempty"`
}

func (b Brand) Key() string { return b.ID }

type BrandPatch struct {
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	Description *string `json:"description"`
	Logo        *string `json:"logo"`
}

type BrandReply struct {
	Brand
	Patch BrandPatch `json:"-"`
}

func (r *BrandReply) UnmarshalJSON(data []byte) error {
	return decodeReply(data, &r.Brand, &r.Patch)
}

func (p BrandPatch) Apply(b *Brand) {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Phone != nil {
		b.Phone = *p.Phone
	}
	if p.Email != nil {
		b.Email = *p.Email
	}
	if p.Address != nil {
		b.Address = *p.Address
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Logo != nil {
		b.Logo = *p.Logo
	}
}

// VideoUpdate is the JSON body of PUT /edit/{id} when no file is replaced.
type VideoUpdate struct {
	Filename    string     `json:"filename"`
	Description string     `json:"description"`
	Brand       string     `json:"brand"`
	ExpiryDate  *time.Time `json:"expiryDate,omitempty"`
}

// decodeReply reads one body twice: into the full record and into its
// patch.
func decodeReply(data []byte, record, patch any) error {
	if err := json.Unmarshal(data, record); err != nil {
		return err
	}
	return json.Unmarshal(data, patch)
}

func isNullJSON(raw []byte) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
