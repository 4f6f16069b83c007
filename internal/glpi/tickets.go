package glpi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/rs/zerolog/log"
)

// statusLabels maps the GLPI numeric ticket status to its label.
var statusLabels = map[int]string{
	1: "Novo",
	2: "Processando (atribuído)",
	3: "Processando (planejado)",
	4: "Pendente",
	5: "Solucionado",
	6: "Fechado",
}

// StatusLabel returns the label for a GLPI status code, with a fallback for
// codes outside the known set.
func StatusLabel(status int) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return fmt.Sprintf("Desconhecido (ID: %d)", status)
}

// Attachment is a file to be linked to a ticket.
type Attachment struct {
	Content     []byte
	ContentType string
}

// filename derives an upload filename from the attachment's content type,
// e.g. image/jpeg -> anexo_whatsapp.jpeg.
func (a *Attachment) filename() string {
	ext := a.ContentType
	if i := strings.LastIndex(ext, "/"); i >= 0 {
		ext = ext[i+1:]
	}
	return "anexo_whatsapp." + ext
}

// Draft holds the accumulated fields of a ticket about to be created.
type Draft struct {
	Title         string
	Description   string
	RequesterID   string
	RequesterName string
	Attachment    *Attachment
}

type ticketResponse struct {
	Name   string `json:"name"`
	Status int    `json:"status"`
}

// TicketStatus fetches a ticket by id and returns a formatted status line.
// Returns ErrNotFound when the ticket does not exist.
func (c *Client) TicketStatus(ctx context.Context, ticketID string) (string, error) {
	var message string
	err := c.withSession(ctx, func(token string) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/Ticket/"+ticketID, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Session-Token", token)

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return ErrNotFound
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("ticket fetch failed with status %d: %s", resp.StatusCode, string(body))
		}

		var ticket ticketResponse
		if err := json.NewDecoder(resp.Body).Decode(&ticket); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}

		title := ticket.Name
		if title == "" {
			title = "Sem Título"
		}
		message = fmt.Sprintf("O chamado *#%s*: '%s' está com o status: *%s*.", ticketID, title, StatusLabel(ticket.Status))
		return nil
	})
	if err != nil {
		return "", err
	}

	return message, nil
}

type createTicketRequest struct {
	Input createTicketInput `json:"input"`
}

type createTicketInput struct {
	Name             string `json:"name"`
	Content          string `json:"content"`
	UsersIDRequester string `json:"_users_id_requester"`
	ITILCategoriesID int    `json:"itilcategories_id"`
}

type createTicketResponse struct {
	ID int `json:"id"`
}

// CreateTicket posts a new ticket and, when the draft carries an attachment,
// follows up with a document upload. The upload is best effort: its outcome
// is reported in the returned confirmation text but never fails the ticket.
func (c *Client) CreateTicket(ctx context.Context, draft Draft) (string, error) {
	description := draft.Description
	if draft.RequesterName != "" {
		description = fmt.Sprintf("**Requisitante (informado via WhatsApp):** %s\n\n---\n\n%s", draft.RequesterName, draft.Description)
	}

	var message string
	err := c.withSession(ctx, func(token string) error {
		payload, err := json.Marshal(createTicketRequest{
			Input: createTicketInput{
				Name:             draft.Title,
				Content:          description,
				UsersIDRequester: draft.RequesterID,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to encode ticket: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/Ticket", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Session-Token", token)

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("ticket creation failed with status %d: %s", resp.StatusCode, string(body))
		}

		var created createTicketResponse
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}

		if draft.RequesterName != "" {
			firstName := strings.SplitN(draft.RequesterName, " ", 2)[0]
			message = fmt.Sprintf("Obrigado, %s. Seu chamado *#%d* foi aberto com sucesso.", firstName, created.ID)
		} else {
			message = fmt.Sprintf("Pronto! O chamado de número *#%d* foi aberto com sucesso em seu nome.", created.ID)
		}

		if draft.Attachment != nil && created.ID != 0 {
			if c.attachDocument(ctx, token, created.ID, draft.Attachment) {
				message += "\nO anexo foi enviado com sucesso."
			} else {
				message += "\n*Atenção:* O chamado foi criado, mas houve uma falha ao enviar o anexo."
			}
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return message, nil
}

// attachDocument uploads an attachment and links it to the ticket. The body
// is the two-part multipart form GLPI expects: a JSON upload manifest plus
// the raw file part.
func (c *Client) attachDocument(ctx context.Context, token string, ticketID int, att *Attachment) bool {
	filename := att.filename()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	manifest := fmt.Sprintf(`{"input": {"itemtype": "Ticket", "items_id": %d, "name": %q}}`, ticketID, filename)
	if err := writer.WriteField("uploadManifest", manifest); err != nil {
		log.Error().Err(err).Msg("glpi: failed to write upload manifest")
		return false
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="filename[0]"; filename=%q`, filename))
	header.Set("Content-Type", att.ContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		log.Error().Err(err).Msg("glpi: failed to create file part")
		return false
	}
	if _, err := part.Write(att.Content); err != nil {
		log.Error().Err(err).Msg("glpi: failed to write file part")
		return false
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/Document", &body)
	if err != nil {
		log.Error().Err(err).Msg("glpi: failed to create document request")
		return false
	}
	req.Header.Set("Session-Token", token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error().Err(err).Int("ticket_id", ticketID).Msg("glpi: document upload failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		log.Error().
			Int("ticket_id", ticketID).
			Int("status", resp.StatusCode).
			Str("response", string(respBody)).
			Msg("glpi: document upload rejected")
		return false
	}

	log.Info().Int("ticket_id", ticketID).Str("filename", filename).Msg("glpi: attachment linked to ticket")
	return true
}

// CheckSession opens and immediately closes a session. Used by config
// validation to probe connectivity and credentials.
func (c *Client) CheckSession(ctx context.Context) error {
	return c.withSession(ctx, func(string) error { return nil })
}
