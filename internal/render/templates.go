package render

import (
	"fmt"
	"strings"

	"github.com/planora/notify/internal/domain"
)

// Email is a rendered notification: a plain-text subject and a complete
// HTML document body.
type Email struct {
	Subject string
	HTML    string
}

// ProjectCreated announces a new project to its owner and co-owners.
func ProjectCreated(p *domain.Project, actorName string) Email {
	title := "Nuevo proyecto creado"
	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<h2 style="margin-top:0;">Se ha creado el proyecto &quot;%s&quot;</h2>`+"\n", esc(p.Name)))
	b.WriteString(field("Creado por", esc(actorName)))
	if p.Description != "" {
		b.WriteString(field("Descripción", esc(truncate(p.Description, maxDescriptionLen))))
	}
	if len(p.Tags) > 0 {
		b.WriteString(field("Etiquetas", tagPills(p.Tags)))
	}
	b.WriteString(`<p style="margin-top:16px;">Recibirás notificaciones sobre las tareas y comentarios de este proyecto.</p>` + "\n")

	return Email{
		Subject: fmt.Sprintf("Nuevo proyecto creado: %s", p.Name),
		HTML:    layout(title, b.String()),
	}
}

// ProjectDeleted announces a project deletion to its owner and members.
func ProjectDeleted(p *domain.Project, actorName string) Email {
	title := "Proyecto eliminado"
	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<h2 style="margin-top:0;">El proyecto &quot;%s&quot; ha sido eliminado</h2>`+"\n", esc(p.Name)))
	b.WriteString(field("Eliminado por", esc(actorName)))
	if p.Description != "" {
		b.WriteString(field("Descripción", esc(truncate(p.Description, maxDescriptionLen))))
	}
	b.WriteString(`<p style="margin-top:16px;">Todas las tareas y comentarios asociados dejarán de estar disponibles.</p>` + "\n")

	return Email{
		Subject: fmt.Sprintf("Proyecto eliminado: %s", p.Name),
		HTML:    layout(title, b.String()),
	}
}

// TaskSaved covers both task creation and update. For a creation, changes
// holds the single created sentinel; for an update it lists the concrete
// field changes in the detector's fixed order.
func TaskSaved(t *domain.Task, projectName, actorName string, created bool, changes []string) Email {
	var title, subject string
	if created {
		title = "Nueva tarea creada"
		subject = fmt.Sprintf("Nueva tarea creada: \"%s\" en %s", t.Title, projectName)
	} else {
		title = "Tarea actualizada"
		subject = fmt.Sprintf("Tarea actualizada: \"%s\" en %s", t.Title, projectName)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<h2 style="margin-top:0;">%s</h2>`+"\n", esc(title)))
	b.WriteString(field("Tarea", esc(t.Title)))
	b.WriteString(field("Proyecto", esc(projectName)))
	b.WriteString(field("Por", esc(actorName)))
	b.WriteString(field("Estado", esc(domain.StatusLabel(t.Status))))
	b.WriteString(field("Prioridad", esc(domain.PriorityLabel(t.Priority))))
	b.WriteString(field("Fecha límite", esc(FormatDueDate(t.DueDate))))
	if t.Description != "" {
		b.WriteString(field("Descripción", esc(truncate(t.Description, maxDescriptionLen))))
	}

	if !created && len(changes) > 0 {
		b.WriteString(`<h3 style="margin-bottom:6px;">Cambios</h3>` + "\n<ul style=\"margin-top:0;\">\n")
		for _, change := range changes {
			b.WriteString("<li>" + esc(change) + "</li>\n")
		}
		b.WriteString("</ul>\n")
	}

	return Email{Subject: subject, HTML: layout(title, b.String())}
}

// TaskDeleted announces a task deletion; the task state is the prior state,
// since the current one no longer exists.
func TaskDeleted(t *domain.Task, projectName, actorName string) Email {
	title := "Tarea eliminada"
	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<h2 style="margin-top:0;">La tarea &quot;%s&quot; ha sido eliminada</h2>`+"\n", esc(t.Title)))
	b.WriteString(field("Proyecto", esc(projectName)))
	b.WriteString(field("Eliminada por", esc(actorName)))
	b.WriteString(field("Último estado", esc(domain.StatusLabel(t.Status))))

	return Email{
		Subject: fmt.Sprintf("Tarea eliminada: \"%s\" en %s", t.Title, projectName),
		HTML:    layout(title, b.String()),
	}
}

// CommentAdded announces a new comment to everyone involved with the task,
// the comment's author included.
func CommentAdded(c *domain.Comment, t *domain.Task, projectName, authorName string) Email {
	title := "Nuevo comentario"
	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<h2 style="margin-top:0;">%s comentó en la tarea &quot;%s&quot;</h2>`+"\n", esc(authorName), esc(t.Title)))
	b.WriteString(field("Proyecto", esc(projectName)))
	b.WriteString(`<blockquote style="border-left:3px solid #1a3c6e;margin:12px 0;padding:8px 16px;background-color:#f4f5f7;">` + "\n")
	b.WriteString(esc(truncate(c.Text, maxCommentLen)))
	b.WriteString("\n</blockquote>\n")

	return Email{
		Subject: fmt.Sprintf("Nuevo comentario en \"%s\" (%s)", t.Title, projectName),
		HTML:    layout(title, b.String()),
	}
}

// OwnerAssigned notifies a user that they are now an owner of a project.
func OwnerAssigned(p *domain.Project, newOwnerName, actorName string) Email {
	title := "Nuevo propietario de proyecto"
	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<h2 style="margin-top:0;">%s ahora es propietario del proyecto &quot;%s&quot;</h2>`+"\n", esc(newOwnerName), esc(p.Name)))
	b.WriteString(field("Asignado por", esc(actorName)))
	if p.Description != "" {
		b.WriteString(field("Descripción", esc(truncate(p.Description, maxDescriptionLen))))
	}

	return Email{
		Subject: fmt.Sprintf("Has sido asignado como propietario de %s", p.Name),
		HTML:    layout(title, b.String()),
	}
}

// CharterSaved announces a created or updated project charter.
func CharterSaved(projectName string, charter *domain.Charter, actorName string) Email {
	title := "Acta de proyecto actualizada"
	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<h2 style="margin-top:0;">Acta del proyecto &quot;%s&quot;</h2>`+"\n", esc(projectName)))
	b.WriteString(field("Actualizada por", esc(actorName)))
	if charter.Vision != "" {
		b.WriteString(field("Visión", esc(truncate(charter.Vision, maxCharterLen))))
	}
	if charter.Mission != "" {
		b.WriteString(field("Misión", esc(truncate(charter.Mission, maxCharterLen))))
	}
	if charter.Scope != "" {
		b.WriteString(field("Alcance", esc(truncate(charter.Scope, maxCharterLen))))
	}
	if charter.Objectives != "" {
		b.WriteString(field("Objetivos", esc(truncate(charter.Objectives, maxCharterLen))))
	}

	return Email{
		Subject: fmt.Sprintf("Acta de proyecto actualizada: %s", projectName),
		HTML:    layout(title, b.String()),
	}
}

// RiskSaved announces a created or updated project risk.
func RiskSaved(projectName string, risk *domain.Risk, actorName string) Email {
	title := "Riesgo de proyecto"
	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<h2 style="margin-top:0;">Riesgo registrado en &quot;%s&quot;</h2>`+"\n", esc(projectName)))
	b.WriteString(field("Riesgo", esc(risk.Title)))
	b.WriteString(field("Registrado por", esc(actorName)))
	if risk.Severity != "" {
		b.WriteString(field("Severidad", esc(risk.Severity)))
	}
	if risk.Likelihood != "" {
		b.WriteString(field("Probabilidad", esc(risk.Likelihood)))
	}
	if risk.Status != "" {
		b.WriteString(field("Estado", esc(risk.Status)))
	}
	if risk.Description != "" {
		b.WriteString(field("Descripción", esc(truncate(risk.Description, maxDescriptionLen))))
	}
	if risk.Mitigation != "" {
		b.WriteString(field("Mitigación", esc(truncate(risk.Mitigation, maxDescriptionLen))))
	}

	return Email{
		Subject: fmt.Sprintf("Riesgo registrado en %s: %s", projectName, risk.Title),
		HTML:    layout(title, b.String()),
	}
}

// TagsUpdated announces a change to a project's tag set.
func TagsUpdated(p *domain.Project, tags []string, actorName string) Email {
	title := "Etiquetas de proyecto actualizadas"
	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<h2 style="margin-top:0;">Las etiquetas del proyecto &quot;%s&quot; han cambiado</h2>`+"\n", esc(p.Name)))
	b.WriteString(field("Actualizadas por", esc(actorName)))
	b.WriteString(field("Etiquetas actuales", tagPills(tags)))

	return Email{
		Subject: fmt.Sprintf("Etiquetas actualizadas en %s", p.Name),
		HTML:    layout(title, b.String()),
	}
}
